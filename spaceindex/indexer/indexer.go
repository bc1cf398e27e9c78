// Package indexer applies chain events to the space store. It is the caller of
// the quorum extractor and the metadata enricher.
package indexer

import (
	"context"
	"fmt"

	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/logs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/metadata"
	"github.com/Arkiv-Network/spaceindex/spaceindex/quorum"
	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

const (
	// SpaceImplementation marks a master copy whose proxies are spaces.
	SpaceImplementation = "Space"

	// AvatarStrategyType is the execution strategy whose deployment call data
	// carries a quorum.
	AvatarStrategyType = "SimpleQuorumAvatar"
)

// Store is the persistence the indexer needs.
type Store interface {
	space.StrategyLookup
	SaveExecutionStrategy(ctx context.Context, s *space.ExecutionStrategy) error
	SaveSpace(ctx context.Context, s *space.Space) error
	GetSpace(ctx context.Context, id common.Address) (*space.Space, error)
}

type ProxyDeployed struct {
	Implementation common.Address
	Proxy          common.Address
	// Input is the call data of the transaction that deployed the proxy.
	Input       []byte
	BlockNumber uint64
}

type SpaceCreated struct {
	Space       common.Address
	MetadataURI string
	BlockNumber uint64
}

type MetadataURIUpdated struct {
	Space       common.Address
	MetadataURI string
	BlockNumber uint64
}

type Indexer struct {
	store    Store
	enricher *metadata.Enricher

	// implementations maps master copies to SpaceImplementation or to an
	// execution strategy type.
	implementations map[common.Address]string
}

func New(store Store, fetcher ipfs.Fetcher, implementations map[common.Address]string) *Indexer {
	impls := make(map[common.Address]string, len(implementations))
	for k, v := range implementations {
		impls[k] = v
	}
	return &Indexer{
		store:           store,
		enricher:        metadata.NewEnricher(fetcher, store),
		implementations: impls,
	}
}

// HandleProxyDeployed records execution strategies and spaces deployed through
// the proxy factory. Proxies of unknown implementations are ignored.
func (ix *Indexer) HandleProxyDeployed(ctx context.Context, ev ProxyDeployed) error {
	kind, ok := ix.implementations[ev.Implementation]
	if !ok {
		log.Debug("ignoring proxy of unknown implementation", "implementation", ev.Implementation, "proxy", ev.Proxy)
		return nil
	}

	if kind == SpaceImplementation {
		return ix.HandleSpaceCreated(ctx, SpaceCreated{
			Space:       ev.Proxy,
			BlockNumber: ev.BlockNumber,
		})
	}

	strategy := NewExecutionStrategy(ev.Proxy, kind, ev.Input, ev.BlockNumber)

	err := ix.store.SaveExecutionStrategy(ctx, strategy)
	if err != nil {
		return fmt.Errorf("failed to save execution strategy %s: %w", ev.Proxy.Hex(), err)
	}

	log.Info("execution strategy indexed", "proxy", ev.Proxy, "type", kind, "quorum", strategy.Quorum)
	return nil
}

// NewExecutionStrategy builds the record of a strategy proxy. For avatar
// strategies the quorum is decoded from the deployment call data in input and
// left nil when it cannot be decoded.
func NewExecutionStrategy(proxy common.Address, typ string, input []byte, blockNumber uint64) *space.ExecutionStrategy {
	strategy := &space.ExecutionStrategy{
		ID:             proxy,
		Type:           typ,
		CreatedAtBlock: blockNumber,
	}

	if typ != AvatarStrategyType {
		return strategy
	}

	q, ok := quorum.ExtractQuorum(input)
	if !ok {
		log.Warn("could not decode avatar quorum from deployment call data", "proxy", proxy, "inputLength", len(input))
		return strategy
	}

	strategy.Quorum, _ = uint256.FromBig(q)
	return strategy
}

func (ix *Indexer) HandleSpaceCreated(ctx context.Context, ev SpaceCreated) error {
	s := space.New(ev.Space)
	s.MetadataURI = ev.MetadataURI
	s.CreatedAtBlock = ev.BlockNumber
	s.UpdatedAtBlock = ev.BlockNumber

	err := ix.enricher.Enrich(ctx, s, ev.MetadataURI)
	if err != nil {
		return fmt.Errorf("failed to enrich space %s: %w", ev.Space.Hex(), err)
	}

	err = ix.store.SaveSpace(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to save space %s: %w", ev.Space.Hex(), err)
	}

	log.Info("space indexed", "space", ev.Space, "name", s.Name)
	return nil
}

func (ix *Indexer) HandleMetadataURIUpdated(ctx context.Context, ev MetadataURIUpdated) error {
	s, err := ix.store.GetSpace(ctx, ev.Space)
	if err != nil {
		return fmt.Errorf("failed to load space %s: %w", ev.Space.Hex(), err)
	}

	err = ix.enricher.Enrich(ctx, s, ev.MetadataURI)
	if err != nil {
		return fmt.Errorf("failed to enrich space %s: %w", ev.Space.Hex(), err)
	}

	s.MetadataURI = ev.MetadataURI
	s.UpdatedAtBlock = ev.BlockNumber

	err = ix.store.SaveSpace(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to save space %s: %w", ev.Space.Hex(), err)
	}

	log.Info("space metadata updated", "space", ev.Space, "uri", ev.MetadataURI)
	return nil
}

// HandleLog decodes a receipt log and dispatches it. txInput is the call data
// of the transaction that emitted the log. Logs with unknown topics are
// ignored.
func (ix *Indexer) HandleLog(ctx context.Context, l *types.Log, txInput []byte) error {
	if len(l.Topics) == 0 {
		return nil
	}

	switch l.Topics[0] {
	case logs.ProxyDeployed:
		values, err := logs.ABI.Unpack("ProxyDeployed", l.Data)
		if err != nil {
			return fmt.Errorf("failed to decode ProxyDeployed log: %w", err)
		}
		return ix.HandleProxyDeployed(ctx, ProxyDeployed{
			Implementation: values[0].(common.Address),
			Proxy:          values[1].(common.Address),
			Input:          txInput,
			BlockNumber:    l.BlockNumber,
		})
	case logs.MetadataURIUpdated:
		values, err := logs.ABI.Unpack("MetadataURIUpdated", l.Data)
		if err != nil {
			return fmt.Errorf("failed to decode MetadataURIUpdated log: %w", err)
		}
		return ix.HandleMetadataURIUpdated(ctx, MetadataURIUpdated{
			Space:       l.Address,
			MetadataURI: values[0].(string),
			BlockNumber: l.BlockNumber,
		})
	default:
		return nil
	}
}
