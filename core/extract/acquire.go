package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gaurav-prasanna/motopipe/core"
)

// Acquirer obtains the raw payload of a source. The set of implementations
// is closed: HTTP, Rendered and Buffer.
type Acquirer interface {
	Acquire(ctx context.Context, url string, cfg Config) ([]byte, error)
	sealed()
}

// HTTP fetches the payload with a plain request.
type HTTP struct {
	Fetcher core.Fetcher
}

func (HTTP) sealed() {}

func (a HTTP) Acquire(ctx context.Context, url string, cfg Config) ([]byte, error) {
	if a.Fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}
	res, err := a.Fetcher.Fetch(ctx, url, cfg.Headers)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// Rendered asks a page renderer for the DOM after scripts have run.
// The renderer is invoked once per URL attempt.
type Rendered struct {
	Renderer  core.PageRenderer
	UserAgent string
}

func (Rendered) sealed() {}

func (a Rendered) Acquire(ctx context.Context, url string, cfg Config) ([]byte, error) {
	if a.Renderer == nil {
		return nil, ErrNoRenderer
	}
	html, err := a.Renderer.Render(ctx, url, core.RenderOptions{
		Timeout:   cfg.Timeout,
		UserAgent: a.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// Buffer serves a payload that is already at hand: Data when set,
// otherwise the contents of the local file at Path.
type Buffer struct {
	Data []byte
	Path string
}

func (Buffer) sealed() {}

func (a Buffer) Acquire(ctx context.Context, _ string, _ Config) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Data != nil {
		return a.Data, nil
	}
	if a.Path == "" {
		return nil, errors.New("buffer has neither data nor path")
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.Path, err)
	}
	return data, nil
}
