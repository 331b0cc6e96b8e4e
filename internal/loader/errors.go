package loader

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by a fetch whose result was overtaken by a newer
// fetch for the same collection. Callers drop it silently.
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrNotFound indicates the upstream does not know the collection (HTTP 404).
type ErrNotFound struct {
	Collection string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("not_found: collection %q", e.Collection)
}

// ErrUpstream indicates any other non-2xx upstream response.
type ErrUpstream struct {
	StatusCode int
	Body       string
}

func (e ErrUpstream) Error() string {
	return fmt.Sprintf("upstream: status %d: %s", e.StatusCode, e.Body)
}

// ErrorLabel classifies err for logs and metrics.
func ErrorLabel(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, ErrSuperseded) {
		return "superseded"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var upstream ErrUpstream
	if errors.As(err, &upstream) {
		return "upstream"
	}
	return "other"
}
