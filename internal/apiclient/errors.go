package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is returned for every failed backend call. StatusCode is zero when the
// request never got a response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the text worth showing to a user for err: the backend's own
// error message when there is one.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return "network error: " + apiErr.Err.Error()
		}
		return apiErr.Message
	}
	return err.Error()
}

// decodeErrorBody extracts a message from the backend's error payloads:
// {"error": "..."}, {"detail": "..."} or a field -> messages map.
func decodeErrorBody(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
			return text
		}
		return http.StatusText(status)
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			parts = append(parts, k+": "+v)
		case []any:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, k+": "+strings.Join(msgs, " "))
		}
	}
	if len(parts) == 0 {
		return http.StatusText(status)
	}
	return strings.Join(parts, "; ")
}
