// Package sseio reads server-sent event framing: events separated by blank
// lines, payload carried on "data:" lines, optional "event:" and "id:" fields.
// All three HTTP transports share this scanner instead of re-implementing it.
package sseio

import (
	"bufio"
	"io"
	"strings"
)

// Event is one decoded server-sent event.
type Event struct {
	Name string
	Id   string
	Data string
}

// Scanner decodes consecutive events from a stream.
type Scanner struct {
	reader *bufio.Reader
}

// NewScanner creates a scanner over the supplied stream.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReader(reader)}
}

// Next returns the next non-empty event, or the stream error. An event is
// considered non-empty once it carries at least one data line.
func (s *Scanner) Next() (*Event, error) {
	event := &Event{}
	var data []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			// A final event may be terminated by EOF rather than a blank line.
			if err == io.EOF && len(data) > 0 {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 {
				// keep-alive separator, no payload yet
				event.Name = ""
				event.Id = ""
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		}
		switch {
		case strings.HasPrefix(line, ":"):
			// comment, used by servers as heartbeat
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(line[len("data:"):]))
		case strings.HasPrefix(line, "event:"):
			event.Name = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "id:"):
			event.Id = strings.TrimSpace(line[len("id:"):])
		}
	}
}
