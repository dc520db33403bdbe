package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"kavosh/internal/authpw"
	"kavosh/internal/search"
	"kavosh/internal/util"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(field, message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The given data was invalid.",
		map[string][]string{field: {message}})
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The given data was invalid.", verr.Fields
	}
	switch {
	case search.IsValidation(err):
		field, msg := queryValidation(err)
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The given data was invalid.",
			map[string][]string{field: {msg}}
	case errors.Is(err, search.ErrSuggestionFailed):
		return http.StatusServiceUnavailable, "SUGGESTION_FAILED", "Suggestions are temporarily unavailable", nil
	case errors.Is(err, search.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search engine unavailable", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil
	case errors.Is(err, authpw.ErrUsernameTaken):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The given data was invalid.",
			map[string][]string{"username": {"The username has already been taken."}}
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// queryValidation names the request parameter a wrapped ErrInvalidQuery
// complains about.
func queryValidation(err error) (field, msg string) {
	msg = strings.TrimPrefix(err.Error(), search.ErrInvalidQuery.Error()+": ")
	field, _, _ = strings.Cut(msg, " ")
	switch field {
	case "page", "size":
		return field, msg
	}
	return "query", msg
}
