// Package fetch implements the Fetcher and PageRenderer interfaces.
// Every call is a single attempt with a bounded timeout; retries are left
// to the caller, which in this pipeline means falling back to sample data.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaurav-prasanna/motopipe/core"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

var tracer = otel.Tracer("motopipe/fetch")

// Options configures an HTTPFetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string

	// CloudflareBypass wraps the transport so requests look like a browser
	// to Cloudflare's bot check.
	CloudflareBypass bool
	Logger           *slog.Logger
}

// HTTPFetcher fetches raw payloads via HTTP using resty.
type HTTPFetcher struct {
	client *resty.Client
}

// New creates an HTTPFetcher. Zero options fall back to a 30s timeout and a
// desktop browser user agent.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "tr-TR,tr;q=0.9,en;q=0.8")
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	instrument(client, opts.Logger)

	return &HTTPFetcher{client: client}
}

func instrument(client *resty.Client, logger *slog.Logger) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.Debug(
			"http response",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"elapsed", res.Time(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		logger.Debug("http error", "method", req.Method, "url", req.URL, "err", err)
	})
}

// Fetch retrieves the payload at url. Extra headers (e.g. Referer) are set
// on this request only. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*core.FetchResult, error) {
	ctx, span := tracer.Start(ctx, "Fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := fmt.Errorf("unexpected status %d for %s", res.StatusCode(), url)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &core.FetchResult{
		URL:         url,
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		Body:        res.Body(),
	}, nil
}
