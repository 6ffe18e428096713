package image

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmorgan81/promptbot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct {
	settings config.Settings
	err      error
}

func (s staticSettings) Settings(context.Context) (config.Settings, error) { return s.settings, s.err }

func newGenerator(url string) *RapidAPIGenerator {
	return &RapidAPIGenerator{
		Client:   http.DefaultClient,
		Settings: staticSettings{settings: config.Settings{URL: url, Key: "secret", Host: "img.p.rapidapi.com"}},
	}
}

func TestRapidAPIGenerate(t *testing.T) {
	var got Params
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "img.p.rapidapi.com", r.Header.Get("x-rapidapi-host"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"final_result":[{"origin":"https://img/1.png"}]}`))
	}))
	defer srv.Close()

	resp, err := newGenerator(srv.URL).Generate(context.Background(), Params{Prompt: "a cat on a roof", StyleID: StyleID, Size: "1-1"})
	require.NoError(t, err)

	origin, ok := resp.Origin()
	assert.True(t, ok)
	assert.Equal(t, "https://img/1.png", origin)
	assert.Equal(t, Params{Prompt: "a cat on a roof", StyleID: 2, Size: "1-1"}, got)
}

func TestRapidAPIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newGenerator(srv.URL).Generate(context.Background(), Params{Prompt: "x", StyleID: StyleID, Size: "1-1"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, IsAbsent(err))
}

func TestRapidAPIMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newGenerator(srv.URL).Generate(context.Background(), Params{Prompt: "x", StyleID: StyleID, Size: "1-1"})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.True(t, IsAbsent(err))
}

func TestRapidAPITransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newGenerator(url).Generate(context.Background(), Params{Prompt: "x", StyleID: StyleID, Size: "1-1"})
	require.Error(t, err)
	assert.False(t, IsAbsent(err))
}

func TestRapidAPISettingsError(t *testing.T) {
	g := &RapidAPIGenerator{Client: http.DefaultClient, Settings: staticSettings{err: config.ErrNoSetting}}
	_, err := g.Generate(context.Background(), Params{Prompt: "x"})
	assert.True(t, errors.Is(err, config.ErrNoSetting))
	assert.False(t, IsAbsent(err))
}

func TestRapidAPITimeoutMidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"final_result":[`))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := newGenerator(srv.URL)
	g.Client = &http.Client{Timeout: 100 * time.Millisecond}

	_, err := g.Generate(context.Background(), Params{Prompt: "a cat on a roof", StyleID: StyleID, Size: "1-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.False(t, IsAbsent(err))
}

func TestRapidAPIEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := newGenerator(srv.URL).Generate(context.Background(), Params{Prompt: "x", StyleID: StyleID, Size: "1-1"})
	assert.ErrorIs(t, err, ErrMalformed)
}
