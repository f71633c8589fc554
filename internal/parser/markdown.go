package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/tocmerge/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	b := newTreeBuilder()

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.Heading(node.Level, string(node.Text(src)))
		case *ast.List:
			var items []string
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := blockText(item, src); t != "" {
					items = append(items, "- "+t)
				}
			}
			b.Paragraph(strings.Join(items, "\n"))
		default:
			b.Paragraph(blockText(n, src))
		}
	}

	return b.Tree(titleFromName(filename)), nil
}

// blockText gets the text content of a goldmark AST node. Leaf blocks keep
// their source lines, which preserves the line structure of code blocks.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if buf.Len() > 0 && c.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
		buf.WriteString(blockText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
