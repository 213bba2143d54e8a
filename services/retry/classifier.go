package retry

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/upb/llm-content-gateway/services/providers"
)

// transientMarkers are matched case-insensitively against error text
var transientMarkers = []string{
	"503",
	"overloaded",
	"429",
	"rate limit",
	"quota",
	"econnreset",
	"etimedout",
	"timeout",
	"connection reset",
}

// IsRetryable reports whether err is worth retrying against the same provider:
// service overload, rate limiting or a transient network failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch providers.StatusCode(err) {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRateLimited reports whether err signals rate limiting or quota exhaustion
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if providers.StatusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota")
}

// IsOverloaded reports whether err signals a temporarily overloaded service
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	if providers.StatusCode(err) == http.StatusServiceUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") || strings.Contains(msg, "overloaded")
}
