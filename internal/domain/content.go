package domain

import "strings"

// SegmentKind discriminates generator output segments. Generators may return
// a mix of textual and non-textual segments; only text is user-visible.
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentData SegmentKind = "data"
)

// Segment is one typed piece of generated content.
type Segment struct {
	Kind SegmentKind
	Text string
}

// TextSegments wraps a plain string response as a single text segment.
func TextSegments(s string) []Segment {
	return []Segment{{Kind: SegmentText, Text: s}}
}

// FlattenText concatenates the textual segments of a generated response and
// discards everything else. An all-non-text response flattens to "".
func FlattenText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind != SegmentText {
			continue
		}
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
