package space

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// UnknownStrategyType is recorded for executors that have not been indexed as
// execution strategies.
const UnknownStrategyType = "unknown"

// Space is a governance space as stored by the indexer.
//
// Executors and ExecutorsTypes are index-aligned: ExecutorsTypes[i] is the type
// of the execution strategy deployed at Executors[i].
type Space struct {
	ID             common.Address   `json:"id"`
	Name           string           `json:"name"`
	About          string           `json:"about"`
	ExternalURL    string           `json:"external_url"`
	Github         string           `json:"github"`
	Twitter        string           `json:"twitter"`
	Discord        string           `json:"discord"`
	Wallet         string           `json:"wallet"`
	Executors      []common.Address `json:"executors"`
	ExecutorsTypes []string         `json:"executors_types"`
	MetadataURI    string           `json:"metadata_uri"`
	CreatedAtBlock uint64           `json:"created_at_block"`
	UpdatedAtBlock uint64           `json:"updated_at_block"`
}

func New(id common.Address) *Space {
	return &Space{
		ID:             id,
		Executors:      []common.Address{},
		ExecutorsTypes: []string{},
	}
}

func (s *Space) Validate() error {
	if len(s.Executors) != len(s.ExecutorsTypes) {
		return fmt.Errorf("space %s has %d executors but %d executor types", s.ID.Hex(), len(s.Executors), len(s.ExecutorsTypes))
	}
	return nil
}

// ExecutionStrategy is a previously indexed execution strategy proxy.
type ExecutionStrategy struct {
	ID             common.Address `json:"id"`
	Type           string         `json:"type"`
	Quorum         *uint256.Int   `json:"quorum,omitempty"`
	CreatedAtBlock uint64         `json:"created_at_block"`
}

// Key is the lookup key of the strategy.
func (e *ExecutionStrategy) Key() string {
	return AddressKey(e.ID)
}

// AddressKey is the lower-case 0x-prefixed hex form of the address.
func AddressKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// StrategyLookup resolves execution strategies indexed by earlier events.
// A miss is reported as (nil, nil).
type StrategyLookup interface {
	ExecutionStrategy(ctx context.Context, key string) (*ExecutionStrategy, error)
}

// StrategyMap is an in-memory StrategyLookup.
type StrategyMap map[string]*ExecutionStrategy

func (m StrategyMap) ExecutionStrategy(_ context.Context, key string) (*ExecutionStrategy, error) {
	return m[strings.ToLower(key)], nil
}

func (m StrategyMap) Add(s *ExecutionStrategy) {
	m[s.Key()] = s
}
