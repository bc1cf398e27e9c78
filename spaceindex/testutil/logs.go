package testutil

import (
	"fmt"

	"github.com/Arkiv-Network/spaceindex/spaceindex/logs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func eventLog(name string, address common.Address, blockNumber uint64, values ...any) (*types.Log, error) {
	event, ok := logs.ABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", name)
	}

	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	return &types.Log{
		Address:     address,
		Topics:      []common.Hash{event.ID},
		Data:        data,
		BlockNumber: blockNumber,
	}, nil
}

// ProxyDeployedLog is the log emitted by the proxy factory at factory.
func ProxyDeployedLog(factory, implementation, proxy common.Address, blockNumber uint64) (*types.Log, error) {
	return eventLog("ProxyDeployed", factory, blockNumber, implementation, proxy)
}

// MetadataURIUpdatedLog is the log emitted by the space at spaceID.
func MetadataURIUpdatedLog(spaceID common.Address, uri string, blockNumber uint64) (*types.Log, error) {
	return eventLog("MetadataURIUpdated", spaceID, blockNumber, uri)
}
