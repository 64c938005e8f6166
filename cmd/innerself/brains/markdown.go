package brainscmder

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/innerself/pkg/mind"
)

// RecordMarkdown lays out a record as a markdown document, oldest entries
// first within each section. Empty sections are omitted.
func RecordMarkdown(r *mind.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	if !r.LastActive.IsZero() {
		fmt.Fprintf(&b, "_Last active %s_\n\n", r.LastActive.Local().Format(time.DateTime))
	}

	if len(r.Thoughts) > 0 {
		b.WriteString("## Inner Thoughts\n\n")
		for _, t := range r.Thoughts {
			fmt.Fprintf(&b, "- %s\n", t.Text)
		}
		b.WriteString("\n")
	}

	if len(r.Goals) > 0 {
		b.WriteString("## Goals\n\n")
		for _, g := range r.Goals {
			mark := " "
			if g.Status == mind.GoalResolved {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, g.Text)
		}
		b.WriteString("\n")
	}

	if len(r.Secrets) > 0 {
		b.WriteString("## Secrets\n\n")
		for _, s := range r.Secrets {
			fmt.Fprintf(&b, "- %s\n", s.Text)
		}
		b.WriteString("\n")
	}

	if len(r.Opinions) > 0 {
		b.WriteString("## Opinions\n\n")
		keys := make([]string, 0, len(r.Opinions))
		for k := range r.Opinions {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, r.Opinions[k])
		}
		b.WriteString("\n")
	}

	if len(r.Memories) > 0 {
		b.WriteString("## Memories\n\n")
		for _, m := range r.Memories {
			if m.Compressed {
				fmt.Fprintf(&b, "- _%s_\n", m.Text)
				continue
			}
			fmt.Fprintf(&b, "- %s\n", m.Text)
		}
		b.WriteString("\n")
	}

	return b.String()
}
