package mind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// flexTime decodes a timestamp written either as an RFC 3339 string or as
// Unix epoch milliseconds. Browser-saved state uses the latter.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var parsed time.Time
		if err := json.Unmarshal(data, &parsed); err != nil {
			return err
		}
		*t = flexTime(parsed)
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("timestamp %s is neither RFC 3339 nor epoch milliseconds", data)
	}
	*t = flexTime(time.UnixMilli(int64(ms)).UTC())
	return nil
}

func (t *Thought) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string   `json:"text"`
		Timestamp flexTime `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Thought{Text: raw.Text, Timestamp: time.Time(raw.Timestamp)}
	return nil
}

func (m *Memory) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text       string   `json:"text"`
		Timestamp  flexTime `json:"timestamp"`
		Compressed bool     `json:"compressed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Memory{Text: raw.Text, Timestamp: time.Time(raw.Timestamp), Compressed: raw.Compressed}
	return nil
}

func (g *Goal) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string     `json:"text"`
		Timestamp flexTime   `json:"timestamp"`
		Status    GoalStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Goal{Text: raw.Text, Timestamp: time.Time(raw.Timestamp), Status: raw.Status}
	return nil
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string   `json:"text"`
		Timestamp flexTime `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Secret{Text: raw.Text, Timestamp: time.Time(raw.Timestamp)}
	return nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		LastActive flexTime `json:"last_active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record(raw.plain)
	r.LastActive = time.Time(raw.LastActive)
	return nil
}
