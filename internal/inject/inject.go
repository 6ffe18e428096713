package inject

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	appconfig "github.com/dmorgan81/promptbot/internal/config"
	"github.com/dmorgan81/promptbot/internal/download"
	"github.com/dmorgan81/promptbot/internal/handler"
	"github.com/dmorgan81/promptbot/internal/image"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/page"
	"github.com/dmorgan81/promptbot/internal/param"
	"github.com/dmorgan81/promptbot/internal/session"
	"github.com/samber/do"
)

const (
	defaultListenAddr = ":8080"
	defaultSessionTTL = time.Hour
)

func Setup(ctx context.Context) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*http.Client](injector, func(i *do.Injector) (*http.Client, error) {
		return &http.Client{Timeout: do.MustInvokeNamed[time.Duration](i, "http_timeout")}, nil
	})

	do.ProvideNamedValue[param.Fetcher](injector, "env", &param.EnvFetcher{})
	do.ProvideNamed[param.Fetcher](injector, "store", func(i *do.Injector) (param.Fetcher, error) {
		return param.NewParameterStoreFetcher(i)
	})
	do.Provide[appconfig.Source](injector, appconfig.NewParamSource)
	do.Provide[image.Generator](injector, image.NewRapidAPIGenerator)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*download.Saver](injector, download.NewSaver)
	do.Provide[*session.Store](injector, session.NewStore)

	do.ProvideNamedValue[string](injector, "listen_addr", envOr("LISTEN_ADDR", defaultListenAddr))
	do.ProvideNamed[time.Duration](injector, "session_ttl", func(i *do.Injector) (time.Duration, error) {
		return durationEnv("SESSION_TTL", defaultSessionTTL)
	})
	do.ProvideNamed[time.Duration](injector, "http_timeout", func(i *do.Injector) (time.Duration, error) {
		return durationEnv("HTTP_TIMEOUT", 0)
	})

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
