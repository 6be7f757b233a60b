// Package citation turns message text and its citation records into
// addressable markers.
//
// A citation is anchored wherever its label (e.g. "[c1]") already appears
// in the content. Citations with no textual anchor are appended after the
// content in list order, so every citation in the list gets exactly one or
// more visible markers.
package citation

import (
	"html"
	"sort"
	"strings"

	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// Attr is the attribute carrying the citation ID on a marker element.
const Attr = "data-citation-id"

// Segment is a run of plain text or a single citation marker.
type Segment struct {
	Text       string
	CitationID string
}

// IsMarker reports whether the segment is a citation marker.
func (s Segment) IsMarker() bool {
	return s.CitationID != ""
}

// Label is the visible text of a marker.
func Label(id string) string {
	return "[" + id + "]"
}

// Valid returns the citations that can be addressed: entries without an ID
// are skipped and repeated IDs keep their first occurrence.
func Valid(citations []models.Citation) []models.Citation {
	if len(citations) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(citations))
	out := make([]models.Citation, 0, len(citations))
	for _, c := range citations {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

type anchor struct {
	start, end int
	id         string
}

// Segments splits content into plain text and citation markers.
func Segments(content string, citations []models.Citation) []Segment {
	valid := Valid(citations)
	if len(valid) == 0 {
		if content == "" {
			return nil
		}
		return []Segment{{Text: content}}
	}

	anchors := findAnchors(content, valid)

	var segs []Segment
	anchored := make(map[string]bool, len(valid))
	pos := 0
	for _, a := range anchors {
		if a.start > pos {
			segs = append(segs, Segment{Text: content[pos:a.start]})
		}
		segs = append(segs, Segment{Text: Label(a.id), CitationID: a.id})
		anchored[a.id] = true
		pos = a.end
	}
	if pos < len(content) {
		segs = append(segs, Segment{Text: content[pos:]})
	}

	for _, c := range valid {
		if anchored[c.ID] {
			continue
		}
		if len(segs) > 0 {
			segs = append(segs, Segment{Text: " "})
		}
		segs = append(segs, Segment{Text: Label(c.ID), CitationID: c.ID})
	}
	return segs
}

// findAnchors locates every "[id]" label in content, left to right.
// Overlapping matches keep the earliest, then the longest.
func findAnchors(content string, valid []models.Citation) []anchor {
	var all []anchor
	for _, c := range valid {
		label := Label(c.ID)
		for offset := 0; offset < len(content); {
			i := strings.Index(content[offset:], label)
			if i < 0 {
				break
			}
			start := offset + i
			all = append(all, anchor{start: start, end: start + len(label), id: c.ID})
			offset = start + len(label)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	out := all[:0]
	last := 0
	for _, a := range all {
		if a.start < last {
			continue
		}
		out = append(out, a)
		last = a.end
	}
	return out
}

// FormatHTML renders content as HTML with each citation wrapped in a
// clickable marker span. Without citations the escaped content is returned
// unchanged.
func FormatHTML(content string, citations []models.Citation) string {
	segs := Segments(content, citations)
	var b strings.Builder
	for _, s := range segs {
		if !s.IsMarker() {
			b.WriteString(html.EscapeString(s.Text))
			continue
		}
		id := html.EscapeString(s.CitationID)
		b.WriteString(`<span class="citation" `)
		b.WriteString(Attr)
		b.WriteString(`="`)
		b.WriteString(id)
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(s.Text))
		b.WriteString(`</span>`)
	}
	return b.String()
}
