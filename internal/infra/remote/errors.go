package remote

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

var notFoundCodes = map[string]struct{}{
	"RESOURCE_DOES_NOT_EXIST": {},
	"NOT_FOUND":               {},
	"CATALOG_DOES_NOT_EXIST":  {},
	"SCHEMA_DOES_NOT_EXIST":   {},
	"TABLE_DOES_NOT_EXIST":    {},
}

var retryableCodes = map[string]struct{}{
	"TEMPORARILY_UNAVAILABLE": {},
	"REQUEST_LIMIT_EXCEEDED":  {},
}

func asError(err error) (*domain.Error, bool) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a remote "object does not exist" failure.
func IsNotFound(err error) bool {
	e, ok := asError(err)
	if !ok {
		return false
	}
	if e.Kind == domain.KindNotFound {
		return true
	}
	if e.Kind != domain.KindTransport {
		return false
	}
	if e.StatusCode == http.StatusNotFound {
		return true
	}
	_, known := notFoundCodes[strings.ToUpper(e.RemoteCode)]
	return known
}

// IsRetryable reports whether an idempotent read may be reissued after err.
func IsRetryable(err error) bool {
	e, ok := asError(err)
	if !ok || e.Kind != domain.KindTransport {
		return false
	}
	if e.Unreachable {
		return true
	}
	if _, known := retryableCodes[strings.ToUpper(e.RemoteCode)]; known {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Classify maps a remote failure for op. Not-found conditions become
// NotFoundError with msg; other errors keep their kind.
func Classify(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		e, _ := asError(err)
		detail := domain.Message(err)
		if msg == "" {
			msg = detail
		} else if detail != "" && detail != msg {
			msg = msg + ": " + detail
		}
		return &domain.Error{
			Kind:       domain.KindNotFound,
			Op:         op,
			Message:    msg,
			Cause:      err,
			StatusCode: e.StatusCode,
			RemoteCode: e.RemoteCode,
		}
	}
	return domain.Wrap(domain.KindTransport, op, err)
}
