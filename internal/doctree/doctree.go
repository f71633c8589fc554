// Package doctree is the structural form of a non-PDF upload before it is
// rendered to PDF pages.
package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Children []*DocNode // Subsections
}

// Empty reports whether the tree carries no text or headings at all.
func (t *DocTree) Empty() bool {
	var walk func(nodes []*DocNode) bool
	walk = func(nodes []*DocNode) bool {
		for _, n := range nodes {
			if n.Title != "" || n.Text != "" || !walk(n.Children) {
				return false
			}
		}
		return true
	}
	return walk(t.Children)
}
