package gateway

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// Frame is one dispatched server-sent event before payload decoding.
type Frame struct {
	Event string
	Data  string
	ID    string
}

// ReadFrames reads a text/event-stream from r and calls emit for every
// complete frame. Comment lines and retry fields are skipped. It returns
// when r is exhausted; a trailing frame without a blank line is dropped.
func ReadFrames(r io.Reader, emit func(Frame)) error {
	scanner := bufio.NewScanner(r)
	// Job payloads are small, but pipeline events can embed long URLs.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cur  Frame
		data []string
	)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if len(data) > 0 {
				cur.Data = strings.Join(data, "\n")
				emit(cur)
			}
			cur = Frame{ID: cur.ID}
			data = data[:0]
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			cur.Event = value
		case "data":
			data = append(data, value)
		case "id":
			cur.ID = value
		}
	}
	return scanner.Err()
}

// DecodeEvent decodes the JSON payload of f. It reports false when the
// payload is not a JSON object.
func DecodeEvent(f Frame) (Event, bool) {
	if strings.TrimSpace(f.Data) == "" {
		return Event{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(f.Data), &raw); err != nil || raw == nil {
		return Event{}, false
	}

	ev := Event{
		Channel:      stringField(raw, "jenkins_channel"),
		Kind:         stringField(raw, "jenkins_event"),
		PipelineName: stringField(raw, "blueocean_job_pipeline_name"),
		ObjectID:     stringField(raw, "jenkins_object_id"),
		ObjectName:   stringField(raw, "jenkins_object_name"),
		RunStatus:    stringField(raw, "job_run_status"),
		Organization: stringField(raw, "jenkins_org"),
		ID:           f.ID,
		Timestamp:    time.Now(),
		Raw:          raw,
	}
	if ev.Channel == "" {
		ev.Channel = f.Event
	}
	return ev, true
}

// stringField returns raw[key] if it is a string, or "" otherwise.
func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
