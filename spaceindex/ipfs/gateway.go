package ipfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	DefaultGatewayTimeout  = 30 * time.Second
	DefaultMaxDocumentSize = 4 << 20
)

// Gateway fetches documents from an HTTP gateway ("https://ipfs.io").
type Gateway struct {
	base      string
	client    *http.Client
	transport *http.Transport
	maxSize   int64
}

type GatewayOptions struct {
	// Timeout bounds each request. Zero means DefaultGatewayTimeout.
	Timeout time.Duration
	// MaxSize bounds the document size. Zero means DefaultMaxDocumentSize.
	MaxSize int64
}

func NewGateway(base string, opts GatewayOptions) (*Gateway, error) {
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("ipfs: gateway url must be http(s): %q", base)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultGatewayTimeout
	}
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxDocumentSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Gateway{
		base:      base,
		client:    &http.Client{Timeout: timeout, Transport: transport},
		transport: transport,
		maxSize:   maxSize,
	}, nil
}

func (g *Gateway) Cat(ctx context.Context, path string) ([]byte, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"/ipfs/"+p.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from gateway: %w", p, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("gateway returned %s for %s", resp.Status, p)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response for %s: %w", p, err)
	}
	if int64(len(data)) > g.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, p, humanize.IBytes(uint64(g.maxSize)))
	}

	if p.Sub == "" {
		err = Verify(p.CID, data)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

// Close releases idle connections.
func (g *Gateway) Close() {
	g.transport.CloseIdleConnections()
}
