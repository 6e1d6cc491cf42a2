package unlock

import (
	"github.com/PolarWolf314/pagelock/internal/sections"

	"golang.org/x/net/html"
)

// Document is the page a Controller restores content into.
type Document interface {
	// Inject replaces the placeholder of s with its content. Injecting a
	// section whose placeholder is gone must be a no-op.
	Inject(s sections.Section) error

	// PlaceholderIDs lists the placeholders still present, in document order.
	PlaceholderIDs() []string
}

// HTMLDocument adapts a parsed golang.org/x/net/html tree to Document.
type HTMLDocument struct {
	root *html.Node
}

// NewHTMLDocument wraps root.
func NewHTMLDocument(root *html.Node) *HTMLDocument {
	return &HTMLDocument{root: root}
}

// ParseHTMLDocument parses src into an HTMLDocument.
func ParseHTMLDocument(src string) (*HTMLDocument, error) {
	root, err := sections.ParseDocument(src)
	if err != nil {
		return nil, err
	}
	return NewHTMLDocument(root), nil
}

func (d *HTMLDocument) Inject(s sections.Section) error {
	return sections.InjectSection(d.root, s)
}

func (d *HTMLDocument) PlaceholderIDs() []string {
	return sections.FindPlaceholders(d.root)
}

// Render serializes the current tree.
func (d *HTMLDocument) Render() (string, error) {
	return sections.RenderDocument(d.root)
}

// Root returns the underlying tree.
func (d *HTMLDocument) Root() *html.Node {
	return d.root
}
