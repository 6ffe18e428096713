package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmorgan81/promptbot/internal/config"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/samber/do"
)

type RapidAPIGenerator struct {
	Client   *http.Client
	Settings config.Source
}

func NewRapidAPIGenerator(i *do.Injector) (Generator, error) {
	return &RapidAPIGenerator{
		Client:   do.MustInvoke[*http.Client](i),
		Settings: do.MustInvoke[config.Source](i),
	}, nil
}

func (g *RapidAPIGenerator) Generate(ctx context.Context, params Params) (Response, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("rapidapi").With("size", params.Size)

	settings, err := g.Settings.Settings(ctx)
	if err != nil {
		return Response{}, err
	}
	log.Info("generating image", "host", settings.Host)

	body, err := json.Marshal(params)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("x-rapidapi-key", settings.Key)
	req.Header.Set("x-rapidapi-host", settings.Host)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	log.Info("received provider response", "results", len(out.FinalResult))
	return out, nil
}
