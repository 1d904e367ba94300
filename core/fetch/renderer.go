package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaurav-prasanna/motopipe/core"
)

// ErrNoRenderer is returned when a rendered source runs without a rendering
// service configured.
var ErrNoRenderer = errors.New("no page renderer configured")

// RemoteRenderer asks an external headless-browser service for the rendered
// DOM of a page. The service must accept POST {endpoint}/content with a JSON
// body {"url": ..., "gotoOptions": {...}} and answer with the page HTML, which
// is what browserless-compatible services do.
type RemoteRenderer struct {
	client *resty.Client
	token  string
}

type renderRequest struct {
	URL                 string            `json:"url"`
	GotoOptions         gotoOptions       `json:"gotoOptions"`
	SetExtraHTTPHeaders map[string]string `json:"setExtraHTTPHeaders,omitempty"`
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int64  `json:"timeout"`
}

// NewRemoteRenderer creates a renderer for the service at endpoint.
// token, when set, is sent as the service's access token.
func NewRemoteRenderer(endpoint, token string, logger *slog.Logger) *RemoteRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(endpoint, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "text/html")
	instrument(client, logger)
	return &RemoteRenderer{client: client, token: token}
}

// Render returns the HTML of url after its scripts have run. The call is
// bounded by opts.Timeout plus a small allowance for the service itself.
func (r *RemoteRenderer) Render(ctx context.Context, url string, opts core.RenderOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "Render", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout+5*time.Second)
	defer cancel()

	body := renderRequest{
		URL: url,
		GotoOptions: gotoOptions{
			WaitUntil: "networkidle2",
			Timeout:   opts.Timeout.Milliseconds(),
		},
	}
	if opts.UserAgent != "" {
		body.SetExtraHTTPHeaders = map[string]string{"User-Agent": opts.UserAgent}
	}

	req := r.client.R().SetContext(ctx).SetBody(body)
	if r.token != "" {
		req.SetQueryParam("token", r.token)
	}
	res, err := req.Post("/content")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render request failed")
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	if res.IsError() {
		err := fmt.Errorf("renderer returned status %d for %s", res.StatusCode(), url)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return res.String(), nil
}
