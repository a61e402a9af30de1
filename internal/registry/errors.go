package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors for registry operations.
var (
	// ErrDelegationNotFound indicates the registry has no delegation record
	// for the computed prefix. This tool never creates one.
	ErrDelegationNotFound = errors.New("no delegation record matches prefix")

	// ErrAmbiguousDelegation indicates more than one delegation record
	// matched the prefix, which the update semantics cannot express safely.
	ErrAmbiguousDelegation = errors.New("multiple delegation records match prefix")
)

// HTTPError is a non-2xx response from the registry API.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

// PrettyBody returns the response body indented for diagnostics, or the
// raw body when it is not JSON.
func (e *HTTPError) PrettyBody() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, e.Body, "", "    "); err != nil {
		return string(e.Body)
	}
	return buf.String()
}

// IsDelegationNotFound returns true if the error indicates no delegation
// record matched the prefix.
func IsDelegationNotFound(err error) bool {
	return errors.Is(err, ErrDelegationNotFound)
}
