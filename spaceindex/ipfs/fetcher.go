// Package ipfs fetches documents from content-addressed storage.
//
// Every fetcher implements Fetcher and is keyed by an IPFS path
// ("<cid>[/sub/path]"). Fetchers never retry; callers decide what a failure
// means.
package ipfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrNotFound    = errors.New("ipfs: not found")
	ErrInvalidURI  = errors.New("ipfs: invalid uri")
	ErrCIDMismatch = errors.New("ipfs: cid mismatch")
	ErrTooLarge    = errors.New("ipfs: document too large")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Fetcher returns the raw bytes stored under an IPFS path.
type Fetcher interface {
	Cat(ctx context.Context, path string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) ([]byte, error)

func (f FetcherFunc) Cat(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// Multi tries each fetcher in order, moving on only when a fetcher reports
// ErrNotFound. Any other error is returned immediately.
type Multi []Fetcher

func (m Multi) Cat(ctx context.Context, path string) ([]byte, error) {
	if len(m) == 0 {
		return nil, errors.New("ipfs: no fetchers configured")
	}
	for _, f := range m {
		data, err := f.Cat(ctx, path)
		if err == nil {
			return data, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// DocumentCache stores fetched documents by path. Content under a CID never
// changes, so entries are never invalidated.
type DocumentCache interface {
	GetDocument(ctx context.Context, path string) ([]byte, bool, error)
	PutDocument(ctx context.Context, path string, data []byte) error
}

// Cached is a read-through cache in front of a Fetcher.
type Cached struct {
	Fetcher Fetcher
	Cache   DocumentCache
}

func (c *Cached) Cat(ctx context.Context, path string) ([]byte, error) {
	data, ok, err := c.Cache.GetDocument(ctx, path)
	if err != nil {
		log.Warn("ipfs: document cache read failed", "path", path, "error", err)
	}
	if ok {
		return data, nil
	}

	data, err = c.Fetcher.Cat(ctx, path)
	if err != nil {
		return nil, err
	}

	err = c.Cache.PutDocument(ctx, path, data)
	if err != nil {
		log.Warn("ipfs: document cache write failed", "path", path, "error", err)
	}

	return data, nil
}
