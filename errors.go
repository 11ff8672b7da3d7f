package splunk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoEntry is returned when a REST response carries no entry for a
	// resource that was expected to exist.
	ErrNoEntry = errors.New("no entry in response")

	// ErrNotAuthenticated is returned by Login when the server answers
	// without a session key.
	ErrNotAuthenticated = errors.New("no session key in login response")
)

// Message is a single message from a REST response, for example
// `{"type":"ERROR","text":"Object id=foo does not exist"}`.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HTTPError is returned for responses with status 400 and above.
type HTTPError struct {
	StatusCode int
	Status     string
	Messages   []Message
}

func (e *HTTPError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("splunk: HTTP %s", e.Status)
	}
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.Text
	}
	return fmt.Sprintf("splunk: HTTP %s: %s", e.Status, strings.Join(texts, "; "))
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == 404
}

func httpErrorFrom(statusCode int, status string, body []byte) *HTTPError {
	var res struct {
		Messages []Message `json:"messages"`
	}
	// Bodies that are not JSON still produce an error, just without messages.
	json.Unmarshal(body, &res)
	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Messages:   res.Messages,
	}
}
