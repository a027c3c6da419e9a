// Package preload checks that an image URL actually serves an image before
// it is shown.
package preload

import (
	"context"
	"errors"
)

var (
	// ErrNotImage means the URL answered with a non-image content type.
	ErrNotImage = errors.New("preload: not an image")
	// ErrStatus means the URL answered with a non-success status.
	ErrStatus = errors.New("preload: unexpected status")
	// ErrBlockedURL means the URL failed validation and was never fetched.
	ErrBlockedURL = errors.New("preload: blocked url")
)

// Preloader loads an image URL and reports whether it is displayable.
// A nil error means the image loaded.
type Preloader interface {
	Preload(ctx context.Context, url string) error
}

// Func adapts a function to Preloader.
type Func func(ctx context.Context, url string) error

// Preload calls f.
func (f Func) Preload(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Static is a Preloader that accepts exactly the URLs in the set.
type Static map[string]bool

// Preload reports ErrStatus for URLs not marked true.
func (s Static) Preload(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s[url] {
		return ErrStatus
	}
	return nil
}
