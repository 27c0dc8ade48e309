package apiclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-admin-console/internal/errors"
)

const defaultErrorMessage = "Something went wrong"

// Envelope is the uniform backend response body.
type Envelope[T any] struct {
	Error      bool        `json:"error"`
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       T           `json:"data"`
	Issues     []Issue     `json:"issues,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list response
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Issue is a single field validation failure
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status    int
	Code      int
	Message   string
	Issues    []Issue
	Method    string
	Path      string
	RequestID string
}

var _ error = (*APIError)(nil)

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// StatusCode returns the HTTP status of the response
func (e *APIError) StatusCode() int {
	return e.Status
}

// Unwrap maps the status onto the package sentinels so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return errors.ErrForbidden
	case e.Status == http.StatusNotFound:
		return errors.ErrNotFound
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return errors.ErrBadRequest
	case e.Status >= http.StatusInternalServerError:
		return errors.ErrTemporary
	}
	return nil
}

// FieldErrors indexes the validation issues by field; the first message wins
func (e *APIError) FieldErrors() map[string]string {
	fields := make(map[string]string, len(e.Issues))
	for _, issue := range e.Issues {
		if _, ok := fields[issue.Field]; !ok {
			fields[issue.Field] = issue.Message
		}
	}
	return fields
}

// Describe returns a displayable message and the field issues for any error
// from this package, with a generic message when there is no backend body.
func Describe(err error) (string, []Issue) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || strings.TrimSpace(apiErr.Message) == "" {
		return defaultErrorMessage, nil
	}
	return apiErr.Message, apiErr.Issues
}
