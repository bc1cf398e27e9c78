package ipfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Dir serves documents from a local directory laid out as
// <root>/<cid>[/sub/path]. It never touches the network.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("ipfs: dir root is required")
	}
	err := os.MkdirAll(root, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create ipfs dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Cat(_ context.Context, path string) ([]byte, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.pathFor(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	if p.Sub == "" {
		err = Verify(p.CID, data)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

// Put stores data under its raw CIDv1 and returns the CID.
func (d *Dir) Put(data []byte) (Path, error) {
	id, err := CIDv1RawSHA256(data)
	if err != nil {
		return Path{}, err
	}
	p := Path{CID: id}
	err = os.WriteFile(d.pathFor(p), data, 0o644)
	if err != nil {
		return Path{}, fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}

func (d *Dir) pathFor(p Path) string {
	return filepath.Join(d.root, p.CID.String(), filepath.FromSlash(p.Sub))
}
