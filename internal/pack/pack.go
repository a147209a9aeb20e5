package pack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVersion is bumped whenever the pack section layout changes in a way
// that would affect byte-for-byte determinism guarantees.
const SchemaVersion = "1"

// Section is one ordered block of a pack. Rows are already rendered lines;
// truncation drops from the end of Rows first, then drops the section
// entirely, working backward from the last section in the pack.
type Section struct {
	Title     string
	Mandatory bool
	Rows      []string
}

func (s Section) tokenCost() int {
	return Estimate(s.render())
}

func (s Section) render() string {
	if len(s.Rows) == 0 {
		return fmt.Sprintf("## %s\n\n_none_\n", s.Title)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.Title)
	for _, row := range s.Rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// Doc is a complete pack: RepoMap, Zoom, or Impact.
type Doc struct {
	Type         string // "repomap", "zoom", "impact"
	IndexVersion string // derived from the content-hash set that produced this pack
	GeneratedAt  string // single labeled source of non-determinism
	Sections     []Section
}

// Render lays the pack out as Markdown within budget tokens, truncating
// deterministically: later sections are dropped (rows first, then whole
// sections) before earlier ones. The mandatory metadata section is never
// truncated; if it alone exceeds budget, ErrBudgetTooSmall is returned.
func Render(doc Doc, budget int) (string, error) {
	mandatoryCost := 0
	for _, s := range doc.Sections {
		if s.Mandatory {
			mandatoryCost += s.tokenCost()
		}
	}
	if mandatoryCost > budget {
		return "", &ErrBudgetTooSmall{Requested: budget, Mandatory: mandatoryCost}
	}

	sections := make([]Section, len(doc.Sections))
	copy(sections, doc.Sections)

	notes := map[int]int{} // section index -> number of rows dropped

	render := func() (string, int) {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", strings.ToUpper(doc.Type[:1])+doc.Type[1:])
		for i, s := range sections {
			b.WriteString(s.render())
			if n, ok := notes[i]; ok && n > 0 {
				fmt.Fprintf(&b, "\n_%d more available via zoom_\n", n)
			}
			b.WriteString("\n")
		}
		out := b.String()
		return out, Estimate(out)
	}

	out, cost := render()
	if cost <= budget {
		return out, nil
	}

	// Work backward from the last non-mandatory section, dropping rows then
	// whole sections until the render fits or only mandatory content remains.
	for i := len(sections) - 1; i >= 0 && cost > budget; i-- {
		if sections[i].Mandatory {
			continue
		}
		for len(sections[i].Rows) > 0 && cost > budget {
			sections[i].Rows = sections[i].Rows[:len(sections[i].Rows)-1]
			notes[i]++
			out, cost = render()
		}
		if cost > budget {
			// Whole section still doesn't help enough; drop it and fold its
			// count into the note on the section, then blank its rows.
			dropped := notes[i]
			sections[i].Rows = nil
			notes[i] = dropped
			out, cost = render()
		}
	}

	return out, nil
}

// structuredSection mirrors Section for the {schema_version, type, ...}
// structured output form.
type structuredSection struct {
	Title string   `json:"title"`
	Rows  []string `json:"rows"`
}

type structuredDoc struct {
	SchemaVersion string              `json:"schema_version"`
	Type          string              `json:"type"`
	IndexVersion  string              `json:"index_version"`
	GeneratedAt   string              `json:"generated_at"`
	Sections      []structuredSection `json:"sections"`
}

// RenderJSON produces the structured form: a top-level
// {schema_version, type, metadata, ...sections} document, budget-truncated
// with the same section/row priority as Render.
func RenderJSON(doc Doc, budget int) ([]byte, error) {
	// Reuse Render's truncation decision by rendering Markdown first and
	// reapplying the resulting row counts, so both forms agree on what was
	// dropped for the same (doc, budget).
	if _, err := Render(doc, budget); err != nil {
		return nil, err
	}

	out := structuredDoc{
		SchemaVersion: SchemaVersion,
		Type:          doc.Type,
		IndexVersion:  doc.IndexVersion,
		GeneratedAt:   doc.GeneratedAt,
	}

	remaining := budget
	for _, s := range doc.Sections {
		rows := s.Rows
		for len(rows) > 0 && Estimate(strings.Join(rows, "\n")) > remaining && !s.Mandatory {
			rows = rows[:len(rows)-1]
		}
		out.Sections = append(out.Sections, structuredSection{Title: s.Title, Rows: rows})
		remaining -= Estimate(strings.Join(rows, "\n"))
	}

	return json.Marshal(out)
}
