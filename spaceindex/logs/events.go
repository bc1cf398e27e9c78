package logs

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProxyDeployed is emitted by the proxy factory for every deployed proxy.
// Parameters: implementation, proxy
var ProxyDeployed = crypto.Keccak256Hash([]byte("ProxyDeployed(address,address)"))

// MetadataURIUpdated is emitted by a space when its metadata URI changes.
// Parameters: newMetadataURI
var MetadataURIUpdated = crypto.Keccak256Hash([]byte("MetadataURIUpdated(string)"))

const eventsJSON = `[
	{
		"type": "event",
		"name": "ProxyDeployed",
		"anonymous": false,
		"inputs": [
			{"name": "implementation", "type": "address", "indexed": false},
			{"name": "proxy", "type": "address", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "MetadataURIUpdated",
		"anonymous": false,
		"inputs": [
			{"name": "newMetadataURI", "type": "string", "indexed": false}
		]
	}
]`

// ABI holds the event definitions used to decode log data.
var ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(eventsJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()
