package compression_test

import (
	"strings"
	"testing"

	"github.com/Arkiv-Network/spaceindex/spaceindex/compression"
	"github.com/stretchr/testify/require"
)

func TestBrotli(t *testing.T) {
	t.Run("metadata document", func(t *testing.T) {
		doc := []byte(`{"name":"Space","description":"` + strings.Repeat("governance ", 100) + `"}`)

		compressed, err := compression.BrotliCompress(doc)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(doc))

		decompressed, err := compression.BrotliDecompress(compressed)
		require.NoError(t, err)
		require.Equal(t, doc, decompressed)
	})

	t.Run("empty input", func(t *testing.T) {
		compressed, err := compression.BrotliCompress(nil)
		require.NoError(t, err)
		require.Nil(t, compressed)

		decompressed, err := compression.BrotliDecompress(nil)
		require.NoError(t, err)
		require.Nil(t, decompressed)
	})

	t.Run("corrupt input", func(t *testing.T) {
		_, err := compression.BrotliDecompress([]byte{0xff, 0xff, 0xff, 0xff})
		require.Error(t, err)
	})
}
