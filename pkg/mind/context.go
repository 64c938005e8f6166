package mind

import "strings"

const (
	contextThoughts = 3
	contextSecrets  = 2

	sectionSeparator = "\n"
	itemSeparator    = " | "
)

// Render builds the prompt fragment for a record. Sections are emitted in a
// fixed order and omitted when empty:
//
//	[Inner Thoughts] the three most recent thoughts
//	[Goals] every active goal
//	[Secrets] the two most recent secrets
//
// Render is pure: it reads only the record's stored contents.
func Render(r *Record) string {
	if r == nil {
		return ""
	}

	var sections []string

	if len(r.Thoughts) > 0 {
		texts := make([]string, 0, contextThoughts)
		for _, t := range lastN(r.Thoughts, contextThoughts) {
			texts = append(texts, t.Text)
		}
		sections = append(sections, "[Inner Thoughts] "+strings.Join(texts, itemSeparator))
	}

	if active := r.ActiveGoals(); len(active) > 0 {
		texts := make([]string, 0, len(active))
		for _, g := range active {
			texts = append(texts, g.Text)
		}
		sections = append(sections, "[Goals] "+strings.Join(texts, itemSeparator))
	}

	if len(r.Secrets) > 0 {
		texts := make([]string, 0, contextSecrets)
		for _, s := range lastN(r.Secrets, contextSecrets) {
			texts = append(texts, s.Text)
		}
		sections = append(sections, "[Secrets] "+strings.Join(texts, itemSeparator))
	}

	return strings.Join(sections, sectionSeparator)
}

// RenderLimit renders the record and truncates the result to at most
// maxLength runes. A maxLength of zero or less disables truncation.
func RenderLimit(r *Record, maxLength int) string {
	rendered := Render(r)
	if maxLength <= 0 {
		return rendered
	}
	return truncateRunes(rendered, maxLength)
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
