package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	lightStyle = "github"
	darkStyle  = "monokai"
)

var (
	cssOnce sync.Once
	css     template.CSS
)

// CodeCSS returns the stylesheet for highlighted code blocks, light and
// dark variants keyed on prefers-color-scheme.
func CodeCSS() template.CSS {
	cssOnce.Do(func() {
		var out strings.Builder
		for _, v := range []struct{ scheme, style string }{{"light", lightStyle}, {"dark", darkStyle}} {
			rules := styleCSS(v.style)
			if rules == "" {
				continue
			}
			out.WriteString("@media (prefers-color-scheme: " + v.scheme + ") {\n")
			out.WriteString(rules)
			out.WriteString("}\n")
		}
		css = template.CSS(out.String())
	})
	return css
}

func styleCSS(name string) string {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return ""
	}
	return buf.String()
}
