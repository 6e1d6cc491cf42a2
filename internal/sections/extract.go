package sections

import (
	"fmt"
	"regexp"
	"strings"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

// Markers names the comment pair that delimits a protected region.
// A marker matches as an HTML comment with optional surrounding whitespace,
// so Start "start" matches both <!--start--> and <!-- start -->.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are used when no markers are configured.
var DefaultMarkers = Markers{Start: "start", End: "end"}

// Segmenter extracts protected regions from HTML.
type Segmenter struct {
	markers Markers
	label   string
	re      *regexp.Regexp
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithMarkers overrides the marker pair. Empty fields keep the default.
func WithMarkers(m Markers) Option {
	return func(s *Segmenter) {
		if m.Start != "" {
			s.markers.Start = m.Start
		}
		if m.End != "" {
			s.markers.End = m.End
		}
	}
}

// WithCallToAction sets the unlock button label rendered in placeholders.
func WithCallToAction(label string) Option {
	return func(s *Segmenter) {
		if label != "" {
			s.label = label
		}
	}
}

// New returns a Segmenter. Start and end markers must differ.
func New(opts ...Option) (*Segmenter, error) {
	s := &Segmenter{
		markers: DefaultMarkers,
		label:   DefaultCallToAction,
	}
	for _, opt := range opts {
		opt(s)
	}

	if strings.TrimSpace(s.markers.Start) == strings.TrimSpace(s.markers.End) {
		return nil, fmt.Errorf("start and end markers must differ, both are %q", s.markers.Start)
	}

	s.re = regexp.MustCompile(`<!--\s*(` +
		regexp.QuoteMeta(strings.TrimSpace(s.markers.Start)) + `|` +
		regexp.QuoteMeta(strings.TrimSpace(s.markers.End)) + `)\s*-->`)

	return s, nil
}

var defaultSegmenter, _ = New()

// Extract runs the default Segmenter.
func Extract(src string) (string, []Section, error) {
	return defaultSegmenter.Extract(src)
}

// Extract scans src for marked regions. Each region, markers included, is
// replaced by a placeholder carrying the region's id; the trimmed inner HTML
// becomes a Section. Without markers src is returned unchanged together with
// an empty slice, which callers treat as nothing to encrypt.
//
// Regions must be balanced and must not nest; anything else fails with ErrFormat.
func (s *Segmenter) Extract(src string) (string, []Section, error) {
	matches := s.re.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, []Section{}, nil
	}

	start := strings.TrimSpace(s.markers.Start)

	var out strings.Builder
	var sections []Section
	cursor := 0
	// open is the offset of the current region's start marker, -1 when none is open.
	open, openEnd := -1, 0

	for _, m := range matches {
		name := src[m[2]:m[3]]

		if name == start {
			if open >= 0 {
				return "", nil, fmt.Errorf("%w: nested %q marker at offset %d", kerrors.ErrFormat, start, m[0])
			}
			open, openEnd = m[0], m[1]
			continue
		}

		if open < 0 {
			return "", nil, fmt.Errorf("%w: %q marker without a matching start at offset %d", kerrors.ErrFormat, name, m[0])
		}

		id := sectionID(len(sections))
		placeholder, err := renderPlaceholder(id, s.label)
		if err != nil {
			return "", nil, fmt.Errorf("failed to render placeholder for %s: %w", id, err)
		}

		sections = append(sections, Section{
			ID:      id,
			Content: strings.TrimSpace(src[openEnd:m[0]]),
		})

		out.WriteString(src[cursor:open])
		out.WriteString(placeholder)
		cursor = m[1]
		open = -1
	}

	if open >= 0 {
		return "", nil, fmt.Errorf("%w: %q marker at offset %d is never closed", kerrors.ErrFormat, start, open)
	}

	out.WriteString(src[cursor:])
	return out.String(), sections, nil
}
