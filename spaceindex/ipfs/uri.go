package ipfs

import (
	"fmt"
	"path"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Scheme is the URI prefix of documents served from IPFS.
const Scheme = "ipfs://"

// Path is a CID with an optional path inside the DAG it roots.
type Path struct {
	CID cid.Cid
	Sub string
}

func (p Path) String() string {
	if p.Sub == "" {
		return p.CID.String()
	}
	return p.CID.String() + "/" + p.Sub
}

// HasScheme reports whether uri starts with Scheme.
func HasScheme(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// ParseURI parses an ipfs:// URI.
func ParseURI(uri string) (Path, error) {
	if !HasScheme(uri) {
		return Path{}, fmt.Errorf("%w: missing %s prefix: %q", ErrInvalidURI, Scheme, uri)
	}
	return ParsePath(strings.TrimPrefix(uri, Scheme))
}

// ParsePath parses "<cid>[/sub/path]". Leading "/ipfs/" is accepted.
func ParsePath(p string) (Path, error) {
	p = strings.TrimPrefix(p, "/ipfs/")
	p = strings.Trim(p, "/")
	if p == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidURI)
	}

	root, sub, _ := strings.Cut(p, "/")

	id, err := cid.Decode(root)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %q: %v", ErrInvalidURI, root, err)
	}

	if sub != "" {
		cleaned := path.Clean("/" + sub)
		if cleaned != "/"+sub || strings.Contains(sub, "..") {
			return Path{}, fmt.Errorf("%w: unclean sub path %q", ErrInvalidURI, sub)
		}
	}

	return Path{CID: id, Sub: sub}, nil
}

// CIDv1RawSHA256 returns the CIDv1 (raw codec, sha2-256) of data.
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify checks data against a raw-codec CID. Other codecs wrap the content in
// a DAG and are not verifiable from the bytes alone; they pass unchecked.
func Verify(id cid.Cid, data []byte) error {
	if id.Prefix().Codec != cid.Raw {
		return nil
	}
	got, err := id.Prefix().Sum(data)
	if err != nil {
		return fmt.Errorf("failed to hash content: %w", err)
	}
	if !got.Equals(id) {
		return fmt.Errorf("%w: want %s, got %s", ErrCIDMismatch, id, got)
	}
	return nil
}
