package sections

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a full HTML page.
func ParseDocument(src string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// RenderDocument serializes doc back to HTML.
func RenderDocument(doc *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return b.String(), nil
}

// InjectSection replaces the placeholder for s with the parsed section markup.
// The new nodes take the placeholder's position in document order and the
// placeholder is removed. A missing placeholder means the section is already
// injected; InjectSection then does nothing.
func InjectSection(doc *html.Node, s Section) error {
	placeholder := findPlaceholder(doc, s.ID)
	if placeholder == nil {
		return nil
	}

	parent := placeholder.Parent
	fragmentContext := parent
	if fragmentContext == nil || fragmentContext.Type != html.ElementNode {
		fragmentContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}

	nodes, err := html.ParseFragment(strings.NewReader(s.Content), fragmentContext)
	if err != nil {
		return fmt.Errorf("failed to parse section %s: %w", s.ID, err)
	}

	for _, n := range nodes {
		parent.InsertBefore(n, placeholder)
	}
	parent.RemoveChild(placeholder)

	return nil
}

// Restore injects every section, in order.
func Restore(doc *html.Node, sections []Section) error {
	for _, s := range sections {
		if err := InjectSection(doc, s); err != nil {
			return err
		}
	}
	return nil
}

// HasPlaceholder reports whether the placeholder for id is still in doc.
func HasPlaceholder(doc *html.Node, id string) bool {
	return findPlaceholder(doc, id) != nil
}

// FindPlaceholders returns the ids of the placeholders still present in doc,
// in document order.
func FindPlaceholders(doc *html.Node) []string {
	var ids []string
	walk(doc, func(n *html.Node) bool {
		if id, ok := placeholderID(n); ok {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

func findPlaceholder(doc *html.Node, id string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if pid, ok := placeholderID(n); ok && pid == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func placeholderID(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}

	var id string
	var hasID, isPlaceholder bool
	for _, a := range n.Attr {
		switch a.Key {
		case "data-id":
			id, hasID = a.Val, true
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == PlaceholderClass {
					isPlaceholder = true
				}
			}
		}
	}
	return id, hasID && isPlaceholder
}

// walk visits nodes depth first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}
