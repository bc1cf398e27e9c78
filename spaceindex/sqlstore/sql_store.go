package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Arkiv-Network/spaceindex/spaceindex/compression"
	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/space"
	"github.com/Arkiv-Network/spaceindex/spaceindex/sqlstore/sqlitespace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	_ "github.com/mattn/go-sqlite3"
)

const spacesSchemaVersion = uint64(1)

var ErrSpaceNotFound = errors.New("space not found")

var (
	_ space.StrategyLookup = (*SQLStore)(nil)
	_ ipfs.DocumentCache   = (*SQLStore)(nil)
)

// SQLStore persists spaces, execution strategies and cached metadata documents
// in SQLite.
type SQLStore struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbFile and brings its schema up
// to date. An outdated schema is dropped and recreated; the index is expected
// to be rebuilt from chain data.
func NewStore(dbFile string) (*SQLStore, error) {
	dir := filepath.Dir(dbFile)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=true&_busy_timeout=5000", dbFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()

	readVersions := true
	spacesVersion := uint64(0)

	var tableName string
	err = db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_versions';
	`).Scan(&tableName)

	switch err {
	case sql.ErrNoRows:
		readVersions = false
		log.Info("spaceindex: no schema version info found, creating schema")
	case nil:
	default:
		db.Close()
		return nil, fmt.Errorf("failed to check schema: %w", err)
	}

	if readVersions {
		err = db.QueryRowContext(ctx, `SELECT spaces FROM schema_versions WHERE id = 1;`).Scan(&spacesVersion)
		switch err {
		case sql.ErrNoRows:
			log.Warn("spaceindex: no schema version info found, table empty")
		case nil:
			log.Debug("spaceindex: schema versions read from database", "spaces", spacesVersion)
		default:
			db.Close()
			return nil, fmt.Errorf("failed to check schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if readVersions && spacesVersion != spacesSchemaVersion {
		log.Warn(
			"spaceindex: database has an outdated schema, dropping tables",
			"existingVersion", spacesVersion,
			"requiredVersion", spacesSchemaVersion,
		)
		for _, table := range []string{"space_executors", "spaces", "execution_strategies", "ipfs_documents", "processing_status"} {
			_, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+";")
			if err != nil {
				tx.Rollback()
				db.Close()
				return nil, fmt.Errorf("failed to drop %s table: %w", table, err)
			}
		}
	}

	err = sqlitespace.ApplySchemaTx(ctx, tx)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to recreate schema: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO schema_versions (id, spaces) VALUES (1, ?);`,
		spacesSchemaVersion)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to update schema versions: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to commit schema: %w", err)
	}

	log.Debug("spaceindex: database ready", "file", dbFile, "schemaVersion", spacesSchemaVersion)
	return &SQLStore{db: db}, nil
}

// Close closes the database connection
func (e *SQLStore) Close() error {
	return e.db.Close()
}

// GetQueries returns a new sqlitespace.Queries instance for autocommit operations
func (e *SQLStore) GetQueries() *sqlitespace.Queries {
	return sqlitespace.New(e.db)
}

// SaveSpace inserts or replaces the space together with its executors.
func (e *SQLStore) SaveSpace(ctx context.Context, s *space.Space) (err error) {
	err = s.Validate()
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			err = rollback(tx, err)
		}
	}()

	txDB := sqlitespace.New(tx)
	id := space.AddressKey(s.ID)

	err = txDB.UpsertSpace(ctx, sqlitespace.UpsertSpaceParams{
		ID:             id,
		Name:           s.Name,
		About:          s.About,
		ExternalUrl:    s.ExternalURL,
		Github:         s.Github,
		Twitter:        s.Twitter,
		Discord:        s.Discord,
		Wallet:         s.Wallet,
		MetadataUri:    s.MetadataURI,
		CreatedAtBlock: int64(s.CreatedAtBlock),
		UpdatedAtBlock: int64(s.UpdatedAtBlock),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert space %s: %w", id, err)
	}

	err = txDB.DeleteSpaceExecutors(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to clear executors of space %s: %w", id, err)
	}

	for i, executor := range s.Executors {
		err = txDB.InsertSpaceExecutor(ctx, sqlitespace.InsertSpaceExecutorParams{
			SpaceID: id,
			Idx:     int64(i),
			Address: space.AddressKey(executor),
			Type:    s.ExecutorsTypes[i],
		})
		if err != nil {
			return fmt.Errorf("failed to insert executor %d of space %s: %w", i, id, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit space %s: %w", id, err)
	}
	return nil
}

// rollback aborts tx after err. A transaction that already finished, such as
// one whose commit failed, adds nothing to err.
func rollback(tx *sql.Tx, err error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		return err
	}
	return errors.Join(err, rbErr)
}

// GetSpace returns the space or ErrSpaceNotFound.
func (e *SQLStore) GetSpace(ctx context.Context, id common.Address) (*space.Space, error) {
	q := e.GetQueries()
	key := space.AddressKey(id)

	row, err := q.GetSpace(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSpaceNotFound, key)
		}
		return nil, fmt.Errorf("failed to get space %s: %w", key, err)
	}

	executors, err := q.GetSpaceExecutors(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get executors of space %s: %w", key, err)
	}

	s := &space.Space{
		ID:             common.HexToAddress(row.ID),
		Name:           row.Name,
		About:          row.About,
		ExternalURL:    row.ExternalUrl,
		Github:         row.Github,
		Twitter:        row.Twitter,
		Discord:        row.Discord,
		Wallet:         row.Wallet,
		MetadataURI:    row.MetadataUri,
		CreatedAtBlock: uint64(row.CreatedAtBlock),
		UpdatedAtBlock: uint64(row.UpdatedAtBlock),
		Executors:      make([]common.Address, 0, len(executors)),
		ExecutorsTypes: make([]string, 0, len(executors)),
	}
	for _, ex := range executors {
		s.Executors = append(s.Executors, common.HexToAddress(ex.Address))
		s.ExecutorsTypes = append(s.ExecutorsTypes, ex.Type)
	}

	return s, nil
}

// ListSpaces returns all spaces ordered by id.
func (e *SQLStore) ListSpaces(ctx context.Context) ([]*space.Space, error) {
	ids, err := e.GetQueries().ListSpaceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	result := make([]*space.Space, 0, len(ids))
	for _, id := range ids {
		s, err := e.GetSpace(ctx, common.HexToAddress(id))
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	return result, nil
}

func (e *SQLStore) SaveExecutionStrategy(ctx context.Context, s *space.ExecutionStrategy) error {
	var q sql.NullString
	if s.Quorum != nil {
		q = sql.NullString{String: s.Quorum.Dec(), Valid: true}
	}

	err := e.GetQueries().UpsertExecutionStrategy(ctx, sqlitespace.UpsertExecutionStrategyParams{
		ID:             s.Key(),
		Type:           s.Type,
		Quorum:         q,
		CreatedAtBlock: int64(s.CreatedAtBlock),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert execution strategy %s: %w", s.Key(), err)
	}
	return nil
}

// ExecutionStrategy implements space.StrategyLookup.
func (e *SQLStore) ExecutionStrategy(ctx context.Context, key string) (*space.ExecutionStrategy, error) {
	row, err := e.GetQueries().GetExecutionStrategy(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get execution strategy %s: %w", key, err)
	}
	return executionStrategyFromRow(row)
}

func (e *SQLStore) ListExecutionStrategies(ctx context.Context) ([]*space.ExecutionStrategy, error) {
	rows, err := e.GetQueries().ListExecutionStrategies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution strategies: %w", err)
	}

	result := make([]*space.ExecutionStrategy, 0, len(rows))
	for _, row := range rows {
		s, err := executionStrategyFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

func executionStrategyFromRow(row sqlitespace.ExecutionStrategy) (*space.ExecutionStrategy, error) {
	s := &space.ExecutionStrategy{
		ID:             common.HexToAddress(row.ID),
		Type:           row.Type,
		CreatedAtBlock: uint64(row.CreatedAtBlock),
	}
	if row.Quorum.Valid {
		q, err := uint256.FromDecimal(row.Quorum.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quorum of execution strategy %s: %w", row.ID, err)
		}
		s.Quorum = q
	}
	return s, nil
}

// GetDocument implements ipfs.DocumentCache.
func (e *SQLStore) GetDocument(ctx context.Context, path string) ([]byte, bool, error) {
	compressed, err := e.GetQueries().GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get document %s: %w", path, err)
	}

	data, err := compression.BrotliDecompress(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress document %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, true, nil
}

// PutDocument implements ipfs.DocumentCache.
func (e *SQLStore) PutDocument(ctx context.Context, path string, data []byte) error {
	compressed, err := compression.BrotliCompress(data)
	if err != nil {
		return err
	}
	if compressed == nil {
		compressed = []byte{}
	}

	err = e.GetQueries().InsertDocument(ctx, sqlitespace.InsertDocumentParams{
		Path: path,
		Data: compressed,
	})
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", path, err)
	}
	return nil
}

type ProcessingStatus struct {
	LastProcessedBlockNumber uint64
	LastProcessedBlockHash   common.Hash
}

// GetProcessingStatus returns the last indexed block of a network. A network
// that was never indexed reports block 0.
func (e *SQLStore) GetProcessingStatus(ctx context.Context, networkID string) (*ProcessingStatus, error) {
	row, err := e.GetQueries().GetProcessingStatus(ctx, networkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ProcessingStatus{}, nil
		}
		return nil, fmt.Errorf("failed to get processing status: %w", err)
	}
	return &ProcessingStatus{
		LastProcessedBlockNumber: uint64(row.LastProcessedBlockNumber),
		LastProcessedBlockHash:   common.HexToHash(row.LastProcessedBlockHash),
	}, nil
}

// UpdateProcessingStatus records status as the last indexed block of a
// network. A status older than the recorded one is ignored.
func (e *SQLStore) UpdateProcessingStatus(ctx context.Context, networkID string, status ProcessingStatus) error {
	err := e.GetQueries().UpsertProcessingStatus(ctx, sqlitespace.UpsertProcessingStatusParams{
		Network:                  networkID,
		LastProcessedBlockNumber: int64(status.LastProcessedBlockNumber),
		LastProcessedBlockHash:   status.LastProcessedBlockHash.Hex(),
	})
	if err != nil {
		return fmt.Errorf("failed to update processing status: %w", err)
	}
	return nil
}
