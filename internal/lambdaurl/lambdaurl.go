package lambdaurl

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/samber/lo"
)

// Adapter serves Lambda function URL invocations through an http.Handler.
type Adapter struct {
	Handler http.Handler
}

func (a *Adapter) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("lambdaurl").With("path", event.RawPath)
	log.Info("handling lambda invocation")

	req, err := newRequest(ctx, event)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	return newResponse(rec), nil
}

func newRequest(ctx context.Context, event events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := event.Body
	if event.IsBase64Encoded {
		data, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, err
		}
		body = string(data)
	}

	u := &url.URL{
		Scheme:   "https",
		Host:     event.RequestContext.DomainName,
		Path:     lo.Ternary(event.RawPath != "", event.RawPath, "/"),
		RawQuery: event.RawQueryString,
	}

	req, err := http.NewRequestWithContext(ctx, event.RequestContext.HTTP.Method, u.String(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	for _, c := range event.Cookies {
		req.Header.Add("Cookie", c)
	}
	req.Host = u.Host
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	return req, nil
}

func newResponse(rec *httptest.ResponseRecorder) events.LambdaFunctionURLResponse {
	resp := rec.Result()
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if k == "Set-Cookie" {
			continue
		}
		headers[k] = strings.Join(v, ",")
	}

	body := rec.Body.Bytes()
	encode := !utf8.Valid(body) || strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") &&
		!strings.HasPrefix(resp.Header.Get("Content-Type"), "image/svg")

	return events.LambdaFunctionURLResponse{
		StatusCode:      resp.StatusCode,
		Headers:         headers,
		Cookies:         resp.Header.Values("Set-Cookie"),
		Body:            lo.Ternary(encode, base64.StdEncoding.EncodeToString(body), string(body)),
		IsBase64Encoded: encode,
	}
}
