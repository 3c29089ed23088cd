package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// classifyStatus maps an HTTP status code from a provider API to an ErrorType.
func classifyStatus(code int) ErrorType {
	switch {
	case code == 401 || code == 403:
		return ErrorAuth
	case code == 429:
		return ErrorRateLimit
	case code == 400 || code == 404 || code == 422:
		return ErrorInvalidInput
	case code >= 500:
		return ErrorServerError
	default:
		return ErrorUnknown
	}
}

// classifyTransport handles errors that never produced an HTTP response.
func classifyTransport(err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTimeout
		}
		return ErrorNetwork
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return ErrorTimeout
	case strings.Contains(lower, "connection") || strings.Contains(lower, "dns") || strings.Contains(lower, "refused"):
		return ErrorNetwork
	}
	return ErrorUnknown
}
