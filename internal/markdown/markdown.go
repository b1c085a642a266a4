// Package markdown renders article bodies to HTML.
package markdown

import (
	stdhtml "html"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	md "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Render turns the article stored at name into HTML. Markdown (.md,
// .markdown) is rendered with highlighted code blocks, HTML is passed
// through as authored, anything else is shown preformatted.
func Render(name string, body []byte) template.HTML {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return ToHTML(string(body))
	case ".html", ".htm":
		return template.HTML(body)
	default:
		return template.HTML(`<pre>` + stdhtml.EscapeString(string(body)) + `</pre>`)
	}
}

// ToHTML renders markdown. Raw HTML in the input is dropped and links
// open in a new tab.
func ToHTML(input string) template.HTML {
	if strings.TrimSpace(input) == "" {
		return template.HTML("")
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(input))
	externalLinks(doc)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags | mdhtml.SkipHTML,
		RenderNodeHook: renderNodeHook,
	})

	return template.HTML(md.Render(doc, renderer))
}

func externalLinks(doc ast.Node) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		link, ok := node.(*ast.Link)
		if !ok {
			return ast.GoToNext
		}

		// hash links navigate within the page and stay put
		if strings.HasPrefix(string(link.Destination), "#") {
			return ast.GoToNext
		}

		attrs := make([]string, 0, len(link.AdditionalAttributes)+2)
		for _, attr := range link.AdditionalAttributes {
			normalized := strings.ToLower(strings.TrimSpace(attr))
			if strings.HasPrefix(normalized, "target=") || strings.HasPrefix(normalized, "rel=") {
				continue
			}
			attrs = append(attrs, attr)
		}
		link.AdditionalAttributes = append(attrs, `target="_blank"`, `rel="noopener noreferrer"`)
		return ast.GoToNext
	})
}

func renderNodeHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if !entering {
		return ast.GoToNext, false
	}

	switch n := node.(type) {
	case *ast.CodeBlock:
		renderCodeBlock(w, n)
		return ast.SkipChildren, true
	case *ast.Code:
		_, _ = io.WriteString(w, `<code class="inline-code">`)
		_, _ = io.WriteString(w, stdhtml.EscapeString(string(n.Literal)))
		_, _ = io.WriteString(w, `</code>`)
		return ast.SkipChildren, true
	default:
		return ast.GoToNext, false
	}
}

func renderCodeBlock(w io.Writer, block *ast.CodeBlock) {
	code := string(block.Literal)
	lexer := pickLexer(codeLanguage(block.Info), code)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		renderPlainCodeBlock(w, code)
		return
	}

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(w, styles.Fallback, iterator); err != nil {
		renderPlainCodeBlock(w, code)
	}
}

func renderPlainCodeBlock(w io.Writer, code string) {
	_, _ = io.WriteString(w, `<pre class="chroma"><code>`)
	_, _ = io.WriteString(w, stdhtml.EscapeString(code))
	_, _ = io.WriteString(w, `</code></pre>`)
}

func pickLexer(language, code string) chroma.Lexer {
	if language != "" {
		if lexer := lexers.Get(language); lexer != nil {
			return lexer
		}
	}
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer
	}
	return lexers.Fallback
}

func codeLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
