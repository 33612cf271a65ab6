package client

import "fmt"

// ExternalServiceError is any failed call to the messaging service.
type ExternalServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status code: %d body=%q", e.Op, e.StatusCode, e.Body)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
