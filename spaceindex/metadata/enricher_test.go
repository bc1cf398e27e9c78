package metadata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/metadata"
	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documents is a Fetcher serving raw-CID documents from memory.
type documents map[string][]byte

func (d documents) add(t *testing.T, doc string) string {
	t.Helper()
	id, err := ipfs.CIDv1RawSHA256([]byte(doc))
	require.NoError(t, err)
	d[id.String()] = []byte(doc)
	return "ipfs://" + id.String()
}

func (d documents) Cat(_ context.Context, path string) ([]byte, error) {
	data, ok := d[path]
	if !ok {
		return nil, ipfs.ErrNotFound
	}
	return data, nil
}

func populatedSpace() *space.Space {
	return &space.Space{
		ID:             common.HexToAddress("0x0000000000000000000000000000000000005ace"),
		Name:           "Old name",
		About:          "Old about",
		ExternalURL:    "https://old.example",
		Github:         "old-gh",
		Twitter:        "old-tw",
		Discord:        "old-dc",
		Wallet:         "0xOLD",
		Executors:      []common.Address{common.HexToAddress("0x0000000000000000000000000000000000000001")},
		ExecutorsTypes: []string{"Old"},
		MetadataURI:    "ipfs://old",
	}
}

func TestEnrichIgnoresNonIPFSURIs(t *testing.T) {
	fetched := false
	fetcher := ipfs.FetcherFunc(func(context.Context, string) ([]byte, error) {
		fetched = true
		return nil, errors.New("must not be called")
	})
	e := metadata.NewEnricher(fetcher, space.StrategyMap{})

	for _, uri := range []string{"https://example.com/x.json", "", "IPFS://bafy", "ar://abc"} {
		s := populatedSpace()
		require.NoError(t, e.Enrich(context.Background(), s, uri))
		require.Equal(t, populatedSpace(), s, uri)
	}
	require.False(t, fetched)
}

func TestEnrichPartialDocument(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"name":"Foo","properties":{"github":"bar"}}`)

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))

	assert.Equal(t, "Foo", s.Name)
	assert.Equal(t, "", s.About)
	assert.Equal(t, "", s.ExternalURL)
	assert.Equal(t, "bar", s.Github)
	assert.Equal(t, "", s.Twitter)
	assert.Equal(t, "", s.Discord)
	assert.Equal(t, "", s.Wallet)
	assert.Equal(t, []common.Address{}, s.Executors)
	assert.Equal(t, []string{}, s.ExecutorsTypes)
	assert.Equal(t, "ipfs://old", s.MetadataURI)
}

func TestEnrichFullDocument(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{
		"name": "Test DAO",
		"description": "A DAO for testing",
		"external_url": "https://test.example",
		"properties": {
			"github": "test-gh",
			"twitter": "test-tw",
			"discord": "test-dc",
			"wallets": ["0xAAA", "0xBBB"],
			"executionStrategies": [
				"0x1111111111111111111111111111111111111111",
				"0x2222222222222222222222222222222222222222"
			]
		}
	}`)

	strategies := space.StrategyMap{}
	strategies.Add(&space.ExecutionStrategy{
		ID:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Type: "SimpleQuorumAvatar",
	})

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, strategies).Enrich(context.Background(), s, uri))

	assert.Equal(t, "Test DAO", s.Name)
	assert.Equal(t, "A DAO for testing", s.About)
	assert.Equal(t, "https://test.example", s.ExternalURL)
	assert.Equal(t, "test-gh", s.Github)
	assert.Equal(t, "test-tw", s.Twitter)
	assert.Equal(t, "test-dc", s.Discord)
	assert.Equal(t, "0xAAA", s.Wallet)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}, s.Executors)
	assert.Equal(t, []string{space.UnknownStrategyType, "SimpleQuorumAvatar"}, s.ExecutorsTypes)
	require.NoError(t, s.Validate())
}

func TestEnrichUnknownStrategy(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"properties":{"executionStrategies":["0x1111111111111111111111111111111111111111"]}}`)

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))

	assert.Equal(t, []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")}, s.Executors)
	assert.Equal(t, []string{"unknown"}, s.ExecutorsTypes)
}

func TestEnrichStrategyLookupIsCaseInsensitive(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"properties":{"executionStrategies":["0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD"]}}`)

	strategies := space.StrategyMap{}
	strategies.Add(&space.ExecutionStrategy{
		ID:   common.HexToAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"),
		Type: "Axiom",
	})

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, strategies).Enrich(context.Background(), s, uri))
	assert.Equal(t, []string{"Axiom"}, s.ExecutorsTypes)
}

func TestEnrichWithoutProperties(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"name":"Only name","description":"d","external_url":"u"}`)

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))

	assert.Equal(t, "Only name", s.Name)
	assert.Equal(t, "d", s.About)
	assert.Equal(t, "u", s.ExternalURL)
	assert.Empty(t, s.Github)
	assert.Empty(t, s.Twitter)
	assert.Empty(t, s.Discord)
	assert.Empty(t, s.Wallet)
	assert.Equal(t, []common.Address{}, s.Executors)
	assert.Equal(t, []string{}, s.ExecutorsTypes)
}

func TestEnrichKeepsNameWhenAbsent(t *testing.T) {
	docs := documents{}

	for _, doc := range []string{`{}`, `{"name":null}`} {
		uri := docs.add(t, doc)
		s := populatedSpace()
		require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))
		assert.Equal(t, "Old name", s.Name, doc)
		assert.Empty(t, s.About, doc)
	}
}

func TestEnrichEmptyWalletsAndNullProperties(t *testing.T) {
	docs := documents{}

	uri := docs.add(t, `{"properties":{"wallets":[],"twitter":null}}`)
	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))
	assert.Empty(t, s.Wallet)
	assert.Empty(t, s.Twitter)

	uri = docs.add(t, `{"properties":null}`)
	s = populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))
	assert.Empty(t, s.Github)
	assert.Equal(t, []common.Address{}, s.Executors)
}

func TestEnrichWalletsMustBeAnArray(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"properties":{"wallets":{"0":"0xAAA"}}}`)

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))
	assert.Empty(t, s.Wallet)
}

func TestEnrichRejectsInvalidUTF8(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, "{\"name\":\"a\xffb\"}")

	s := populatedSpace()
	err := metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri)
	require.ErrorIs(t, err, metadata.ErrInvalidJSON)
	require.Equal(t, populatedSpace(), s)
}

func TestEnrichRepeatedKeysKeepLastValue(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"name":"first","name":"second","properties":{"github":"a","wallets":["0xAAA"],"github":"b","wallets":["0xBBB","0xCCC"]}}`)

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, space.StrategyMap{}).Enrich(context.Background(), s, uri))
	assert.Equal(t, "second", s.Name)
	assert.Equal(t, "b", s.Github)
	assert.Equal(t, "0xBBB", s.Wallet)
}

func TestEnrichIsIdempotent(t *testing.T) {
	docs := documents{}
	uri := docs.add(t, `{"name":"Foo","properties":{"wallets":["0xAAA"],"executionStrategies":["0x1111111111111111111111111111111111111111"]}}`)
	e := metadata.NewEnricher(docs, space.StrategyMap{})

	once := populatedSpace()
	require.NoError(t, e.Enrich(context.Background(), once, uri))

	twice := populatedSpace()
	require.NoError(t, e.Enrich(context.Background(), twice, uri))
	require.NoError(t, e.Enrich(context.Background(), twice, uri))

	require.Equal(t, once, twice)
}

type failingLookup struct{}

func (failingLookup) ExecutionStrategy(context.Context, string) (*space.ExecutionStrategy, error) {
	return nil, errors.New("database is locked")
}

func TestEnrichFailuresLeaveSpaceUntouched(t *testing.T) {
	docs := documents{}
	notJSON := docs.add(t, `{"name": "Broken"`)
	notObject := docs.add(t, `["name"]`)
	badProperties := docs.add(t, `{"name":"x","properties":"github"}`)
	badStrategy := docs.add(t, `{"name":"x","properties":{"executionStrategies":["0x1234"]}}`)
	strategiesNotArray := docs.add(t, `{"name":"x","properties":{"executionStrategies":"0x1111111111111111111111111111111111111111"}}`)
	needsLookup := docs.add(t, `{"name":"x","properties":{"executionStrategies":["0x1111111111111111111111111111111111111111"]}}`)

	missingID, err := ipfs.CIDv1RawSHA256([]byte("never stored"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		uri        string
		strategies space.StrategyLookup
		wantErr    error
	}{
		{name: "fetch failure", uri: "ipfs://" + missingID.String(), wantErr: ipfs.ErrNotFound},
		{name: "invalid cid", uri: "ipfs://definitely-not-a-cid", wantErr: ipfs.ErrInvalidURI},
		{name: "invalid json", uri: notJSON, wantErr: metadata.ErrInvalidJSON},
		{name: "not an object", uri: notObject, wantErr: metadata.ErrNotObject},
		{name: "properties not an object", uri: badProperties, wantErr: metadata.ErrNotObject},
		{name: "short strategy address", uri: badStrategy, wantErr: metadata.ErrInvalidStrategy},
		{name: "strategies not an array", uri: strategiesNotArray, wantErr: metadata.ErrInvalidStrategy},
		{name: "lookup failure", uri: needsLookup, strategies: failingLookup{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategies := tt.strategies
			if strategies == nil {
				strategies = space.StrategyMap{}
			}

			s := populatedSpace()
			err := metadata.NewEnricher(docs, strategies).Enrich(context.Background(), s, tt.uri)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.Equal(t, populatedSpace(), s)
		})
	}
}

func TestEnrichSubPathURI(t *testing.T) {
	root := "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	docs := documents{root + "/metadata.json": []byte(`{"name":"Nested"}`)}

	s := populatedSpace()
	require.NoError(t, metadata.NewEnricher(docs, nil).Enrich(context.Background(), s, "ipfs://"+root+"/metadata.json"))
	require.Equal(t, "Nested", s.Name)
}
