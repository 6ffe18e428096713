package image

import (
	"context"
	"errors"
	"fmt"
)

// StyleID is the provider style sent with every request.
const StyleID = 2

type Params struct {
	Prompt  string `json:"prompt"`
	StyleID int    `json:"style_id"`
	Size    string `json:"size"`
}

type Result struct {
	Origin *string `json:"origin,omitempty"`
}

// Response is the provider reply. Every field is optional.
type Response struct {
	FinalResult []Result `json:"final_result,omitempty"`
}

// Origin returns final_result[0].origin when it is present and non-empty.
func (r Response) Origin() (string, bool) {
	if len(r.FinalResult) == 0 || r.FinalResult[0].Origin == nil || *r.FinalResult[0].Origin == "" {
		return "", false
	}
	return *r.FinalResult[0].Origin, true
}

type Generator interface {
	Generate(context.Context, Params) (Response, error)
}

var ErrMalformed = errors.New("malformed provider response")

type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %s", e.Status)
}

// IsAbsent reports whether err means the provider answered without a
// usable image, as opposed to the request never completing.
func IsAbsent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) || errors.Is(err, ErrMalformed)
}
