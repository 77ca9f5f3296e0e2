package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ByLCY/forme/layout"
	"github.com/ByLCY/forme/markup"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	pipelineOpts
	output string
	tree   bool
}

func newLayoutCmd() *cobra.Command {
	opts := layoutOpts{}

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Typeset a document and print the forme and pressed runs as JSON",
		Long: `Layout runs the line breaker and presser without painting. The result lists every
line of the forme and the absolute position of every run, which is handy for
checking wrap decisions. With --tree it prints the parsed document as JSONML
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runLayout(cmd, args[0], &opts, cfg)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.tree, "tree", false, "print the parsed document tree as JSONML and stop")

	return cmd
}

func runLayout(cmd *cobra.Command, input string, opts *layoutOpts, cfg Config) error {
	ctx := cmd.Context()

	var w io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	if opts.tree {
		doc, err := loadDocument(input, cmd.InOrStdin())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(markup.ToJSONML(doc))
	}

	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	forme, pressed, err := sess.typeset(ctx, input, cmd.InOrStdin(), sess.metricsProvider(nil))
	if err != nil {
		return err
	}
	return layout.EncodeDebugJSON(w, forme, pressed)
}
