package ipfs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Kubo fetches documents through a local Kubo "ipfs" binary. It reads from the
// local repo, or from the network when a daemon is running.
type Kubo struct {
	bin string
	env []string
}

type KuboOptions struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env optionally overrides the command environment (e.g. to set IPFS_PATH).
	// If nil, the process environment is used.
	Env []string
}

func NewKubo(opts KuboOptions) *Kubo {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &Kubo{bin: bin, env: opts.Env}
}

func (k *Kubo) Cat(ctx context.Context, path string) ([]byte, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, k.bin, "cat", "/ipfs/"+p.String())
	if k.env != nil {
		cmd.Env = k.env
	}

	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			msg := strings.TrimSpace(string(ee.Stderr))
			if isLikelyNotFound(msg) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
			}
			if msg != "" {
				return nil, fmt.Errorf("ipfs: %s", msg)
			}
		}
		return nil, fmt.Errorf("ipfs: %w", err)
	}

	if p.Sub == "" {
		err = Verify(p.CID, out)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func isLikelyNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no link named")
}
