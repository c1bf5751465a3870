package backend

import (
	"errors"
	"fmt"
)

// Stages and types classifying where an API call failed.
const (
	StageBeforeRequest = "before-request"
	StageRequest       = "request"
	StageAfterRequest  = "after-request"

	TypeJSONParse   = "json"
	TypeRequestPrep = "request-prep"
	TypeIO          = "io"
	TypeHTTPStatus  = "not-ok-http-status"
	TypeRateLimit   = "rate-limit"
)

// APIError describes a failed call to the campaign backend.
type APIError struct {
	Stage      string
	Type       string
	StatusCode int
	Body       []byte
	Err        error
}

var _ error = &APIError{}

func (e *APIError) Error() string {
	detail := string(e.Body)
	if e.Err != nil {
		detail = e.Err.Error()
	}
	return fmt.Sprintf(
		"backend request failed during %q stage with error type %q, status %d: %s",
		e.Stage, e.Type, e.StatusCode, detail,
	)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match any *APIError regardless of pointer identity.
func (e *APIError) Is(other error) bool {
	var target *APIError
	return errors.As(other, &target) && target != nil
}
