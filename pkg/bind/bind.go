// Package bind decodes an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kleptokart/kleptokart/config"
)

var (
	// ErrMalformed is returned for bodies that are not a single JSON value
	// matching the destination.
	ErrMalformed = errors.New("bind: malformed JSON body")
	// ErrTooLarge is returned when the body exceeds MAX_BODY_BYTES.
	ErrTooLarge = errors.New("bind: request body too large")
)

// JSON decodes r.Body into dest. The body is capped at config.MaxBodyBytes.
// Unknown fields are ignored. Field validation is the caller's job.
func JSON(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxErr.Limit)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
