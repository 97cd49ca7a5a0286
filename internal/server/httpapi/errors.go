package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// apiError is the wire form of every failure.
type apiError struct {
	Status     int               `json:"-"`
	Message    string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	Limit      int64             `json:"limit,omitempty"`
	Allowed    []string          `json:"allowed,omitempty"`
	RetryAfter time.Duration     `json:"-"`
	// internal marks errors whose cause is logged and never shown.
	internal bool
}

// classify is the single place where internal errors become HTTP responses.
// Authentication failures collapse to one message so the cause never leaks.
func classify(err error) apiError {
	var (
		ve  *common.ValidationError
		tl  *common.PayloadTooLargeError
		mbe *http.MaxBytesError
		um  *common.UnsupportedMediaTypeError
		tm  *common.TooManyAttemptsError
	)

	switch {
	case errors.As(err, &ve):
		return apiError{Status: http.StatusUnprocessableEntity, Message: "validation failed", Fields: ve.Fields}
	case errors.As(err, &tl):
		return apiError{Status: http.StatusRequestEntityTooLarge, Message: "payload too large", Limit: tl.Limit}
	case errors.As(err, &mbe):
		return apiError{Status: http.StatusRequestEntityTooLarge, Message: "payload too large", Limit: mbe.Limit}
	case errors.As(err, &um):
		return apiError{Status: http.StatusUnsupportedMediaType, Message: "unsupported media type", Allowed: um.Allowed}
	case errors.As(err, &tm):
		return apiError{Status: http.StatusTooManyRequests, Message: "too many attempts", RetryAfter: tm.RetryAfter}
	case errors.Is(err, common.ErrTooManyAttempts):
		return apiError{Status: http.StatusTooManyRequests, Message: "too many attempts", RetryAfter: time.Second}
	case errors.Is(err, common.ErrInvalidCredentials):
		return apiError{Status: http.StatusUnauthorized, Message: "bad credentials"}
	case errors.Is(err, common.ErrorUnauthorized):
		return apiError{Status: http.StatusUnauthorized, Message: "not authenticated"}
	case errors.Is(err, common.ErrorConflict):
		return apiError{Status: http.StatusConflict, Message: "already exists"}
	case errors.Is(err, common.ErrorNotFound):
		return apiError{Status: http.StatusNotFound, Message: "not found"}
	case errors.Is(err, common.ErrStorageUnavailable):
		return apiError{Status: http.StatusServiceUnavailable, Message: "storage unavailable", internal: true}
	}
	return apiError{Status: http.StatusInternalServerError, Message: "internal error", internal: true}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)

	if e.internal {
		a.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		a.logger.Debug(r.Context(), "request rejected", "status", e.Status, "error", err)
	}

	switch e.Status {
	case http.StatusUnauthorized:
		if e.Message == "not authenticated" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="compliancebinder"`)
		}
	case http.StatusTooManyRequests:
		secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}

	writeJSON(w, e.Status, e)
}
