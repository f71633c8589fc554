package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/tocmerge/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs; line
// breaks inside a paragraph are kept.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: titleFromName(filename)}
	var current []string
	emit := func() {
		if len(current) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: strings.Join(current, "\n")})
			current = current[:0]
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	emit()

	return tree, nil
}
