package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/param"
	"github.com/samber/do"
)

const (
	URLName  = "IMAGE_API_URL"
	KeyName  = "IMAGE_API_KEY"
	HostName = "IMAGE_API_HOST"

	paramSuffix = "_PARAM"
)

var ErrNoSetting = errors.New("setting not configured")

// Settings are the provider settings for a single generation.
type Settings struct {
	URL  string
	Key  string
	Host string
}

type Source interface {
	Settings(context.Context) (Settings, error)
}

// ParamSource resolves each setting from the environment, or from the
// parameter store when NAME_PARAM holds a parameter path.
type ParamSource struct {
	Env   param.Fetcher
	Store param.Fetcher
}

func NewParamSource(i *do.Injector) (Source, error) {
	return &ParamSource{
		Env:   do.MustInvokeNamed[param.Fetcher](i, "env"),
		Store: do.MustInvokeNamed[param.Fetcher](i, "store"),
	}, nil
}

func (s *ParamSource) Settings(ctx context.Context) (Settings, error) {
	log.FromContextOrDiscard(ctx).WithGroup("config").Debug("reading provider settings")

	var (
		settings Settings
		err      error
	)
	if settings.URL, err = s.resolve(ctx, URLName); err != nil {
		return Settings{}, err
	}
	if settings.URL == "" {
		return Settings{}, fmt.Errorf("%s: %w", URLName, ErrNoSetting)
	}
	if settings.Key, err = s.resolve(ctx, KeyName); err != nil {
		return Settings{}, err
	}
	if settings.Host, err = s.resolve(ctx, HostName); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *ParamSource) resolve(ctx context.Context, name string) (string, error) {
	path, err := s.Env.Fetch(ctx, name+paramSuffix)
	if err == nil && path != "" {
		v, err := s.Store.Fetch(ctx, path)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	if err != nil && !errors.Is(err, param.ErrNotFound) {
		return "", err
	}

	v, err := s.Env.Fetch(ctx, name)
	if errors.Is(err, param.ErrNotFound) {
		return "", nil
	}
	return v, err
}
