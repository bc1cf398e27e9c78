package logs_test

import (
	"testing"

	"github.com/Arkiv-Network/spaceindex/spaceindex/logs"
	"github.com/stretchr/testify/require"
)

func TestTopicsMatchABI(t *testing.T) {
	require.Equal(t, logs.ProxyDeployed, logs.ABI.Events["ProxyDeployed"].ID)
	require.Equal(t, logs.MetadataURIUpdated, logs.ABI.Events["MetadataURIUpdated"].ID)
}
