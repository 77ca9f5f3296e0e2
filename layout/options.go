package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/forme/transform"
)

// DefaultMaxIterations 是单段文本折行循环的迭代上限。
const DefaultMaxIterations = 100000

// maxNestingDepth 限制树的嵌套深度，防止带环的节点引用导致无限递归。
const maxNestingDepth = 1024

// FontMetricsProvider 负责根据样式测量文本宽度并给出字体纵向度量。
// 实现通常包装一个不可并发使用的测量面，调用方需自行串行化。
type FontMetricsProvider interface {
	MeasureText(style Style, text string) (float64, error)
	FontMetrics(style Style) (FontMetrics, error)
}

// Options 配置一次排版所需的依赖。
type Options struct {
	Metrics       FontMetricsProvider
	Resolver      Resolver          // 为空时使用 DefaultResolver
	Images        ImageTable        // 图片引用表，缺失的引用会被跳过
	Text          transform.Options // 非代码文本的排版变换开关
	Logger        *log.Logger       // 为空时不输出日志
	MaxIterations int               // <=0 时使用 DefaultMaxIterations
}

func (o Options) withDefaults() Options {
	if o.Resolver == nil {
		o.Resolver = DefaultResolver
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}
