package sse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// Reader parses SSE events from a stream.
type Reader struct {
	scanner *bufio.Scanner

	current Event
	data    []string
	pending bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{scanner: scanner}
}

// Next blocks until a complete event is available and returns it. Comment
// lines and blank keep-alive lines are skipped. Next returns nil, nil once
// the source is exhausted; an event left unterminated at the end of the
// stream is still returned.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		switch {
		case line == "":
			if r.pending {
				return r.emit(), nil
			}
		case strings.HasPrefix(line, ":"):
			// comment
		default:
			r.field(line)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if r.pending {
		return r.emit(), nil
	}
	return nil, nil
}

// field accumulates one "name:value" line. A single space after the colon
// is stripped; a line without a colon is a field with an empty value.
func (r *Reader) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "data":
		r.data = append(r.data, value)
	case "event":
		r.current.Type = value
	case "id":
		r.current.ID = value
	default:
		// "retry" and unknown fields are ignored.
		return
	}
	r.pending = true
}

func (r *Reader) emit() *Event {
	ev := r.current
	ev.Data = strings.Join(r.data, "\n")

	r.current = Event{}
	r.data = r.data[:0]
	r.pending = false

	return &ev
}
