package fetch

import (
	"errors"
	"fmt"
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// AsStatusError unwraps err into a *StatusError when it is one.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
