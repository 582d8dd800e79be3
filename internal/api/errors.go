package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// StatusError is returned when the fleet API answers with a non-success status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Messages   []string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: fleet API returned status %d", e.Method, e.Path, e.StatusCode)
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	return msg
}

// Is lets callers match on ErrNotFound and ErrConflict.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// errorEnvelope is the server's failure body: {"status": "error", "errors": ...}.
// errors is a list of strings, a single string, or an object of id lists.
type errorEnvelope struct {
	Status string          `json:"status"`
	Errors json.RawMessage `json:"errors"`
}

func parseErrorMessages(body []byte) []string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Errors) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(env.Errors, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(env.Errors, &single); err == nil {
		return []string{single}
	}

	var grouped map[string]json.RawMessage
	if err := json.Unmarshal(env.Errors, &grouped); err == nil {
		keys := make([]string, 0, len(grouped))
		for k := range grouped {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		messages := make([]string, 0, len(keys))
		for _, k := range keys {
			messages = append(messages, fmt.Sprintf("%s: %s", k, string(grouped[k])))
		}
		return messages
	}

	return nil
}
