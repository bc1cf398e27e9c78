package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/Arkiv-Network/spaceindex/spaceindex/sqlstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*sqlstore.SQLStore, string) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "db", "spaces.db")
	store, err := sqlstore.NewStore(dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dbFile
}

func TestSpaceRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	s := &space.Space{
		ID:          common.HexToAddress("0xABCDEF0000000000000000000000000000000001"),
		Name:        "Test DAO",
		About:       "about",
		ExternalURL: "https://example.com",
		Github:      "gh",
		Twitter:     "tw",
		Discord:     "dc",
		Wallet:      "0xAAA",
		Executors: []common.Address{
			common.HexToAddress("0x1111111111111111111111111111111111111111"),
			common.HexToAddress("0x2222222222222222222222222222222222222222"),
		},
		ExecutorsTypes: []string{"SimpleQuorumAvatar", space.UnknownStrategyType},
		MetadataURI:    "ipfs://bafkreid",
		CreatedAtBlock: 10,
		UpdatedAtBlock: 12,
	}

	require.NoError(t, store.SaveSpace(ctx, s))

	got, err := store.GetSpace(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	t.Run("update replaces executors", func(t *testing.T) {
		s.Name = "Renamed"
		s.Executors = []common.Address{common.HexToAddress("0x3333333333333333333333333333333333333333")}
		s.ExecutorsTypes = []string{"Axiom"}
		s.UpdatedAtBlock = 20
		require.NoError(t, store.SaveSpace(ctx, s))

		got, err := store.GetSpace(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, s.Executors, got.Executors)
		assert.Equal(t, []string{"Axiom"}, got.ExecutorsTypes)
		assert.Equal(t, uint64(10), got.CreatedAtBlock)
		assert.Equal(t, uint64(20), got.UpdatedAtBlock)
	})

	t.Run("empty executors", func(t *testing.T) {
		s.Executors = []common.Address{}
		s.ExecutorsTypes = []string{}
		require.NoError(t, store.SaveSpace(ctx, s))

		got, err := store.GetSpace(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Executors)
		assert.Empty(t, got.ExecutorsTypes)
	})
}

func TestSaveSpaceRejectsMisalignedExecutors(t *testing.T) {
	store, _ := newStore(t)

	s := space.New(common.HexToAddress("0x01"))
	s.Executors = []common.Address{common.HexToAddress("0x02")}

	require.Error(t, store.SaveSpace(context.Background(), s))

	_, err := store.GetSpace(context.Background(), s.ID)
	require.ErrorIs(t, err, sqlstore.ErrSpaceNotFound)
}

func TestGetSpaceNotFound(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.GetSpace(context.Background(), common.HexToAddress("0x99"))
	require.ErrorIs(t, err, sqlstore.ErrSpaceNotFound)
}

func TestListSpaces(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, a := range []string{"0x03", "0x01", "0x02"} {
		require.NoError(t, store.SaveSpace(ctx, space.New(common.HexToAddress(a))))
	}

	spaces, err := store.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 3)
	require.Equal(t, common.HexToAddress("0x01"), spaces[0].ID)
	require.Equal(t, common.HexToAddress("0x03"), spaces[2].ID)
}

func TestExecutionStrategies(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	withQuorum := &space.ExecutionStrategy{
		ID:             common.HexToAddress("0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"),
		Type:           "SimpleQuorumAvatar",
		Quorum:         uint256.NewInt(5),
		CreatedAtBlock: 7,
	}
	withoutQuorum := &space.ExecutionStrategy{
		ID:   common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Type: "Axiom",
	}

	require.NoError(t, store.SaveExecutionStrategy(ctx, withQuorum))
	require.NoError(t, store.SaveExecutionStrategy(ctx, withoutQuorum))

	got, err := store.ExecutionStrategy(ctx, withQuorum.Key())
	require.NoError(t, err)
	require.Equal(t, withQuorum, got)

	got, err = store.ExecutionStrategy(ctx, withoutQuorum.Key())
	require.NoError(t, err)
	require.Nil(t, got.Quorum)
	require.Equal(t, "Axiom", got.Type)

	missing, err := store.ExecutionStrategy(ctx, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Nil(t, missing)

	all, err := store.ListExecutionStrategies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestDocumentCache(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, ok, err := store.GetDocument(ctx, "bafk/missing")
	require.NoError(t, err)
	require.False(t, ok)

	doc := []byte(`{"name":"cached"}`)
	require.NoError(t, store.PutDocument(ctx, "bafk", doc))

	got, ok, err := store.GetDocument(ctx, "bafk")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, doc, got)

	require.NoError(t, store.PutDocument(ctx, "empty", nil))
	got, ok, err = store.GetDocument(ctx, "empty")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestProcessingStatus(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	status, err := store.GetProcessingStatus(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), status.LastProcessedBlockNumber)

	want := sqlstore.ProcessingStatus{
		LastProcessedBlockNumber: 123,
		LastProcessedBlockHash:   common.HexToHash("0xabc"),
	}
	require.NoError(t, store.UpdateProcessingStatus(ctx, "1", want))

	status, err = store.GetProcessingStatus(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, want, *status)
}

func TestProcessingStatusNeverMovesBackwards(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	latest := sqlstore.ProcessingStatus{
		LastProcessedBlockNumber: 200,
		LastProcessedBlockHash:   common.HexToHash("0x200"),
	}
	require.NoError(t, store.UpdateProcessingStatus(ctx, "1", latest))
	require.NoError(t, store.UpdateProcessingStatus(ctx, "1", sqlstore.ProcessingStatus{
		LastProcessedBlockNumber: 100,
		LastProcessedBlockHash:   common.HexToHash("0x100"),
	}))

	status, err := store.GetProcessingStatus(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, latest, *status)

	// Other networks are tracked separately.
	status, err = store.GetProcessingStatus(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, uint64(0), status.LastProcessedBlockNumber)

	newer := sqlstore.ProcessingStatus{
		LastProcessedBlockNumber: 201,
		LastProcessedBlockHash:   common.HexToHash("0x201"),
	}
	require.NoError(t, store.UpdateProcessingStatus(ctx, "1", newer))
	status, err = store.GetProcessingStatus(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, newer, *status)
}

func TestReopenKeepsData(t *testing.T) {
	store, dbFile := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSpace(ctx, space.New(common.HexToAddress("0x01"))))
	require.NoError(t, store.Close())

	reopened, err := sqlstore.NewStore(dbFile)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.GetSpace(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
}

func TestOutdatedSchemaIsRecreated(t *testing.T) {
	store, dbFile := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSpace(ctx, space.New(common.HexToAddress("0x01"))))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite3", dbFile)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_versions SET spaces = 0 WHERE id = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := sqlstore.NewStore(dbFile)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.GetSpace(ctx, common.HexToAddress("0x01"))
	require.ErrorIs(t, err, sqlstore.ErrSpaceNotFound)
}
