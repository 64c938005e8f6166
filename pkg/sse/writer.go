package sse

import (
	"fmt"
	"io"
	"strings"
)

// Write encodes ev onto w, splitting multi-line data into one "data:" line
// per line and terminating the event with a blank line.
func Write(w io.Writer, ev Event) error {
	var b strings.Builder

	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Type)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteComment writes a comment line, typically used as a keep-alive.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
