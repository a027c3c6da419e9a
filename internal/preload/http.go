package preload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"placeimages/internal/metrics"
	"placeimages/internal/validation"
)

// DefaultTimeout bounds a single preload.
const DefaultTimeout = 2 * time.Second

const userAgent = "placeimages-preloader/1.0"

// Options configures an HTTPPreloader.
type Options struct {
	Timeout      time.Duration
	AllowPrivate bool
	Client       *http.Client
	Logger       *slog.Logger
}

// HTTPPreloader verifies images with a HEAD request, falling back to GET
// for servers that do not implement HEAD.
type HTTPPreloader struct {
	client       *http.Client
	timeout      time.Duration
	allowPrivate bool
	breakers     *breakers
	logger       *slog.Logger
}

// NewHTTP creates an HTTP preloader.
func NewHTTP(opts Options) *HTTPPreloader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p := &HTTPPreloader{
		timeout:      opts.Timeout,
		allowPrivate: opts.AllowPrivate,
		logger:       opts.Logger,
	}
	p.breakers = newBreakers(opts.Logger)

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if client.CheckRedirect == nil {
		c := *client
		c.CheckRedirect = p.checkRedirect
		client = &c
	}
	p.client = client
	return p
}

// checkRedirect keeps redirects, which keyword providers rely on, inside the
// same validation as the original URL.
func (p *HTTPPreloader) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("too many redirects")
	}
	if ok, msg := validation.ValidateURLForPreload(req.URL.String(), p.allowPrivate); !ok {
		return fmt.Errorf("%w: redirect: %s", ErrBlockedURL, msg)
	}
	return nil
}

// Preload implements Preloader.
func (p *HTTPPreloader) Preload(ctx context.Context, rawURL string) error {
	if ok, msg := validation.ValidateURLForPreload(rawURL, p.allowPrivate); !ok {
		metrics.RecordPreload("blocked")
		return fmt.Errorf("%w: %s", ErrBlockedURL, msg)
	}

	u, _ := url.Parse(rawURL)
	_, err := p.breakers.get(u.Host).Execute(func() (struct{}, error) {
		return struct{}{}, p.fetch(ctx, rawURL)
	})
	switch {
	case err == nil:
		metrics.RecordPreload("ok")
	case isOpenCircuit(err):
		metrics.RecordPreload("open_circuit")
	default:
		metrics.RecordPreload("failed")
		p.logger.Debug("image preload failed", "url", rawURL, "error", err)
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("preload timed out after %v: %w", p.timeout, err)
	}
	return err
}

// Exists reports whether the URL serves an image.
func (p *HTTPPreloader) Exists(ctx context.Context, rawURL string) bool {
	return p.Preload(ctx, rawURL) == nil
}

// Metadata describes an image as reported by its server.
type Metadata struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Metadata returns the size, content type and modification time of an image.
func (p *HTTPPreloader) Metadata(ctx context.Context, rawURL string) (*Metadata, error) {
	if ok, msg := validation.ValidateURLForPreload(rawURL, p.allowPrivate); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockedURL, msg)
	}

	resp, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	md := &Metadata{ContentType: resp.Header.Get("Content-Type"), Size: -1}
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		md.Size = n
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			md.LastModified = t
		}
	}
	return md, nil
}

func (p *HTTPPreloader) fetch(ctx context.Context, rawURL string) error {
	resp, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp.Body.Close()
		if resp, err = p.do(ctx, http.MethodGet, rawURL); err != nil {
			return err
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	return checkResponse(resp)
}

func (p *HTTPPreloader) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return nil
}

// StatusError carries the status of a failed preload. It matches ErrStatus.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrStatus, e.Code)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// cancelBody releases the request timeout once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
