package sections

import (
	"html/template"
	"strings"
)

const (
	// PlaceholderClass marks placeholder elements so they are not confused
	// with page content that happens to carry a data-id attribute.
	PlaceholderClass = "pagelock-placeholder"

	// DefaultCallToAction is the label of the unlock button inside a placeholder.
	DefaultCallToAction = "This content is password protected. Click to unlock."
)

// placeholderTemplate must stay on one line: any whitespace around the
// element would become a text node in the restored page.
const placeholderTemplate = `<div class="` + PlaceholderClass + `" data-id="{{.ID}}"><button type="button" class="pagelock-unlock" data-pagelock-target="{{.ID}}">{{.Label}}</button></div>`

var placeholderTmpl = template.Must(template.New("placeholder").Parse(placeholderTemplate))

type placeholderData struct {
	ID    string
	Label string
}

func renderPlaceholder(id, label string) (string, error) {
	var b strings.Builder
	if err := placeholderTmpl.Execute(&b, placeholderData{ID: id, Label: label}); err != nil {
		return "", err
	}
	return b.String(), nil
}
