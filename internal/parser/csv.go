package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/tocmerge/internal/doctree"
)

// csvBatch is how many data rows go into one rendered section.
const csvBatch = 40

// CSVParser handles CSV files. The first row is treated as the header and
// each section lists rows as "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromName(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: "Columns",
			Text:  strings.Join(headers, ", "),
		})
		return tree, nil
	}

	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))

		var text strings.Builder
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}

		tree.Children = append(tree.Children, &doctree.DocNode{
			// Row numbers are 1-based and count the header line.
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Text:  strings.TrimRight(text.String(), "\n"),
		})
	}

	return tree, nil
}
