package apiclient

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized   = errors.New("apiclient: unauthorized")
	ErrForbidden      = errors.New("apiclient: forbidden")
	ErrNotFound       = errors.New("apiclient: not found")
	ErrRateLimited    = errors.New("apiclient: rate limited")
	ErrQuotaExhausted = errors.New("apiclient: quota exhausted")
)

// Error is a non-2xx answer from the server. Detail is the server's own
// message and is meant for display.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Detail)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden, ErrQuotaExhausted:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// Detail returns the server message carried by err, or "".
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
