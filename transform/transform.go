// Package transform 实现排版前对非代码文本的变换：空白折叠、智能标点、
// HTML 实体解码以及数据占位符展开。
package transform

import (
	"bytes"
	"regexp"
	"strings"

	mdhtml "github.com/gomarkdown/markdown/html"
	"golang.org/x/net/html"

	"github.com/ByLCY/forme/binding"
)

// Options 控制各项变换是否启用；Data 非空时先展开 ${path} 占位符。
type Options struct {
	CollapseWhitespace bool `toml:"collapse_whitespace" json:"collapseWhitespace"`
	SmartPunctuation   bool `toml:"smart_punctuation" json:"smartPunctuation"`
	DecodeEntities     bool `toml:"decode_entities" json:"decodeEntities"`
	Data               any  `toml:"-" json:"-"`
}

// All 返回启用全部文本变换的选项。
func All() Options {
	return Options{CollapseWhitespace: true, SmartPunctuation: true, DecodeEntities: true}
}

// Apply 按固定顺序应用已启用的变换：占位符、空白、标点、实体。
func Apply(text string, o Options) string {
	if o.Data != nil {
		text = binding.Interpolate(text, o.Data)
	}
	if o.CollapseWhitespace {
		text = CollapseWhitespace(text)
	}
	if o.SmartPunctuation {
		text = Smarten(text)
	}
	if o.DecodeEntities {
		text = DecodeEntities(text)
	}
	return text
}

var whitespacePattern = regexp.MustCompile(`\r\n|\n|\r| {2,}`)

// CollapseWhitespace 将换行与连续空格替换为单个空格。
func CollapseWhitespace(text string) string {
	return whitespacePattern.ReplaceAllString(text, " ")
}

// smartEntities 还原 smartypants 输出的实体，使结果为纯文本。
var smartEntities = strings.NewReplacer(
	"&ldquo;", "“",
	"&rdquo;", "”",
	"&lsquo;", "‘",
	"&rsquo;", "’",
	"&laquo;", "«",
	"&raquo;", "»",
	"&ndash;", "–",
	"&mdash;", "—",
	"&hellip;", "…",
)

const smartFlags = mdhtml.Smartypants | mdhtml.SmartypantsDashes | mdhtml.SmartypantsLatexDashes

// smartGuard 插入 (c)、(r)、(tm) 与 1/2、1/4、3/4 之中，使 smartypants
// 的符号与分数规则不匹配；处理完成后移除。
const smartGuard = "\uE000"

var (
	symbolPattern   = regexp.MustCompile(`(?i)\((c|r|tm)\)`)
	fractionPattern = regexp.MustCompile(`([13])/`)
)

// Smarten 仅替换引号、破折号与省略号：
// "--" 为短破折号，"---" 为长破折号，"..." 为省略号。
// (c)、(tm) 与 1/2 等保持原样。
func Smarten(text string) string {
	if text == "" {
		return text
	}
	guarded := symbolPattern.ReplaceAllString(text, "("+smartGuard+"$1)")
	guarded = fractionPattern.ReplaceAllString(guarded, "${1}"+smartGuard+"/")

	var buf bytes.Buffer
	mdhtml.NewSmartypantsRenderer(smartFlags).Process(&buf, []byte(guarded))
	out := strings.ReplaceAll(buf.String(), smartGuard, "")
	return smartEntities.Replace(out)
}

// DecodeEntities 解码 HTML 实体，如 &amp; 与 &#169;。
func DecodeEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return html.UnescapeString(text)
}
