package parser

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/tocmerge/internal/doctree"
)

// treeBuilder nests sections by heading level. Text goes to the most recent
// open section; a heading closes every open section at the same or deeper
// level.
type treeBuilder struct {
	root  *doctree.DocNode
	stack []openSection
	text  strings.Builder
}

type openSection struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder() *treeBuilder {
	root := &doctree.DocNode{}
	return &treeBuilder{
		root:  root,
		stack: []openSection{{node: root, level: 0}},
	}
}

// Heading opens a new section at level (1 = top).
func (b *treeBuilder) Heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, openSection{node: node, level: level})
}

// Paragraph appends a block of text to the current section.
func (b *treeBuilder) Paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *treeBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Tree finishes the document. Text seen before any heading becomes a leading
// untitled section.
func (b *treeBuilder) Tree(title string) *doctree.DocTree {
	b.flush()
	tree := &doctree.DocTree{Title: title}
	if b.root.Text != "" {
		tree.Children = append(tree.Children, &doctree.DocNode{Text: b.root.Text})
	}
	tree.Children = append(tree.Children, b.root.Children...)
	return tree
}

// titleFromName strips the extension from a file name.
func titleFromName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
