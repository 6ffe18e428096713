package param

import (
	"context"
	"errors"
	"os"
)

var ErrNotFound = errors.New("parameter not found")

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

// EnvFetcher reads parameters from the process environment.
type EnvFetcher struct {
	Lookup func(string) (string, bool)
}

func (f *EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	lookup := f.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(name); ok {
		return v, nil
	}
	return "", ErrNotFound
}
