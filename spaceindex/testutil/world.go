package testutil

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/Arkiv-Network/spaceindex/spaceindex/indexer"
	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/Arkiv-Network/spaceindex/spaceindex/sqlstore"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ProxyFactory           = common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")
	SpaceMasterCopy        = common.HexToAddress("0x00000000000000000000000000000000000005ac")
	AvatarMasterCopy       = common.HexToAddress("0x00000000000000000000000000000000000a7a7a")
	AxiomMasterCopy        = common.HexToAddress("0x0000000000000000000000000000000000a710e0")
	DefaultImplementations = map[common.Address]string{
		SpaceMasterCopy:  indexer.SpaceImplementation,
		AvatarMasterCopy: indexer.AvatarStrategyType,
		AxiomMasterCopy:  "Axiom",
	}
)

// World is the test world - it holds all the state that is shared between steps
type World struct {
	Store     *sqlstore.SQLStore
	Documents *ipfs.Dir
	Indexer   *indexer.Indexer

	// URIs maps document names used by scenarios to their ipfs:// URIs.
	URIs map[string]string

	SpaceID    common.Address
	LastInput  []byte
	LastQuorum *big.Int
	LastError  error
	NextBlock  uint64

	tempDir string
}

func NewWorld(ctx context.Context) (*World, error) {
	td, err := os.MkdirTemp("", "spaceindex")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	store, err := sqlstore.NewStore(filepath.Join(td, "spaces.db"))
	if err != nil {
		os.RemoveAll(td)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	docs, err := ipfs.NewDir(filepath.Join(td, "ipfs"))
	if err != nil {
		store.Close()
		os.RemoveAll(td)
		return nil, fmt.Errorf("failed to create document dir: %w", err)
	}

	fetcher := &ipfs.Cached{Fetcher: docs, Cache: store}

	return &World{
		Store:     store,
		Documents: docs,
		Indexer:   indexer.New(store, fetcher, DefaultImplementations),
		URIs:      map[string]string{},
		NextBlock: 1,
		tempDir:   td,
	}, nil
}

// PublishDocument stores doc and remembers its URI under name.
func (w *World) PublishDocument(name, doc string) (string, error) {
	p, err := w.Documents.Put([]byte(doc))
	if err != nil {
		return "", err
	}
	uri := ipfs.Scheme + p.String()
	w.URIs[name] = uri
	return uri, nil
}

// Block returns the next block number.
func (w *World) Block() uint64 {
	b := w.NextBlock
	w.NextBlock++
	return b
}

func (w *World) Shutdown() {
	w.Store.Close()
	os.RemoveAll(w.tempDir)
}

func (w *World) AddStateToTestError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	spaces, listErr := w.Store.ListSpaces(ctx)
	if listErr != nil {
		return fmt.Errorf("%w\n\nfailed to list spaces: %v", err, listErr)
	}

	return fmt.Errorf("%w\n\nIndexed spaces:\n%s", err, describeSpaces(spaces))
}

func describeSpaces(spaces []*space.Space) string {
	out := ""
	for _, s := range spaces {
		out += fmt.Sprintf("  %s name=%q executors=%v types=%v\n", s.ID.Hex(), s.Name, s.Executors, s.ExecutorsTypes)
	}
	if out == "" {
		return "  (none)\n"
	}
	return out
}
