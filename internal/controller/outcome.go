package controller

import "fmt"

type Kind int

const (
	KindOK Kind = iota + 1
	KindFallback
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindFallback:
		return "fallback"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is how a generation settled. Image is empty for failures.
type Outcome struct {
	Kind  Kind
	Image string
	Err   error
}

func OK(image string) Outcome       { return Outcome{Kind: KindOK, Image: image} }
func Fallback(image string) Outcome { return Outcome{Kind: KindFallback, Image: image} }
func Failed(err error) Outcome      { return Outcome{Kind: KindFailed, Err: err} }

func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
