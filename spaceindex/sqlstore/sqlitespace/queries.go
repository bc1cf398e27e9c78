// Package sqlitespace holds the SQL schema and typed queries of the space store.
package sqlitespace

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Space struct {
	ID             string
	Name           string
	About          string
	ExternalUrl    string
	Github         string
	Twitter        string
	Discord        string
	Wallet         string
	MetadataUri    string
	CreatedAtBlock int64
	UpdatedAtBlock int64
}

type SpaceExecutor struct {
	SpaceID string
	Idx     int64
	Address string
	Type    string
}

type ExecutionStrategy struct {
	ID             string
	Type           string
	Quorum         sql.NullString
	CreatedAtBlock int64
}

const upsertSpace = `
INSERT INTO spaces (
    id, name, about, external_url, github, twitter, discord, wallet,
    metadata_uri, created_at_block, updated_at_block
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    about = excluded.about,
    external_url = excluded.external_url,
    github = excluded.github,
    twitter = excluded.twitter,
    discord = excluded.discord,
    wallet = excluded.wallet,
    metadata_uri = excluded.metadata_uri,
    updated_at_block = excluded.updated_at_block
`

type UpsertSpaceParams = Space

func (q *Queries) UpsertSpace(ctx context.Context, arg UpsertSpaceParams) error {
	_, err := q.db.ExecContext(ctx, upsertSpace,
		arg.ID,
		arg.Name,
		arg.About,
		arg.ExternalUrl,
		arg.Github,
		arg.Twitter,
		arg.Discord,
		arg.Wallet,
		arg.MetadataUri,
		arg.CreatedAtBlock,
		arg.UpdatedAtBlock,
	)
	return err
}

const getSpace = `
SELECT id, name, about, external_url, github, twitter, discord, wallet,
       metadata_uri, created_at_block, updated_at_block
FROM spaces
WHERE id = ?
`

func (q *Queries) GetSpace(ctx context.Context, id string) (Space, error) {
	row := q.db.QueryRowContext(ctx, getSpace, id)
	var i Space
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.About,
		&i.ExternalUrl,
		&i.Github,
		&i.Twitter,
		&i.Discord,
		&i.Wallet,
		&i.MetadataUri,
		&i.CreatedAtBlock,
		&i.UpdatedAtBlock,
	)
	return i, err
}

const listSpaceIDs = `SELECT id FROM spaces ORDER BY id`

func (q *Queries) ListSpaceIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSpaceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSpaceExecutors = `DELETE FROM space_executors WHERE space_id = ?`

func (q *Queries) DeleteSpaceExecutors(ctx context.Context, spaceID string) error {
	_, err := q.db.ExecContext(ctx, deleteSpaceExecutors, spaceID)
	return err
}

const insertSpaceExecutor = `
INSERT INTO space_executors (space_id, idx, address, type) VALUES (?, ?, ?, ?)
`

type InsertSpaceExecutorParams = SpaceExecutor

func (q *Queries) InsertSpaceExecutor(ctx context.Context, arg InsertSpaceExecutorParams) error {
	_, err := q.db.ExecContext(ctx, insertSpaceExecutor,
		arg.SpaceID,
		arg.Idx,
		arg.Address,
		arg.Type,
	)
	return err
}

const getSpaceExecutors = `
SELECT space_id, idx, address, type
FROM space_executors
WHERE space_id = ?
ORDER BY idx
`

func (q *Queries) GetSpaceExecutors(ctx context.Context, spaceID string) ([]SpaceExecutor, error) {
	rows, err := q.db.QueryContext(ctx, getSpaceExecutors, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SpaceExecutor
	for rows.Next() {
		var i SpaceExecutor
		if err := rows.Scan(&i.SpaceID, &i.Idx, &i.Address, &i.Type); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertExecutionStrategy = `
INSERT INTO execution_strategies (id, type, quorum, created_at_block) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    type = excluded.type,
    quorum = excluded.quorum
`

type UpsertExecutionStrategyParams = ExecutionStrategy

func (q *Queries) UpsertExecutionStrategy(ctx context.Context, arg UpsertExecutionStrategyParams) error {
	_, err := q.db.ExecContext(ctx, upsertExecutionStrategy,
		arg.ID,
		arg.Type,
		arg.Quorum,
		arg.CreatedAtBlock,
	)
	return err
}

const getExecutionStrategy = `
SELECT id, type, quorum, created_at_block FROM execution_strategies WHERE id = ?
`

func (q *Queries) GetExecutionStrategy(ctx context.Context, id string) (ExecutionStrategy, error) {
	row := q.db.QueryRowContext(ctx, getExecutionStrategy, id)
	var i ExecutionStrategy
	err := row.Scan(&i.ID, &i.Type, &i.Quorum, &i.CreatedAtBlock)
	return i, err
}

const listExecutionStrategies = `
SELECT id, type, quorum, created_at_block FROM execution_strategies ORDER BY id
`

func (q *Queries) ListExecutionStrategies(ctx context.Context) ([]ExecutionStrategy, error) {
	rows, err := q.db.QueryContext(ctx, listExecutionStrategies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExecutionStrategy
	for rows.Next() {
		var i ExecutionStrategy
		if err := rows.Scan(&i.ID, &i.Type, &i.Quorum, &i.CreatedAtBlock); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDocument = `SELECT data FROM ipfs_documents WHERE path = ?`

func (q *Queries) GetDocument(ctx context.Context, path string) ([]byte, error) {
	row := q.db.QueryRowContext(ctx, getDocument, path)
	var data []byte
	err := row.Scan(&data)
	return data, err
}

const insertDocument = `INSERT OR IGNORE INTO ipfs_documents (path, data) VALUES (?, ?)`

type InsertDocumentParams struct {
	Path string
	Data []byte
}

func (q *Queries) InsertDocument(ctx context.Context, arg InsertDocumentParams) error {
	_, err := q.db.ExecContext(ctx, insertDocument, arg.Path, arg.Data)
	return err
}

const getProcessingStatus = `
SELECT last_processed_block_number, last_processed_block_hash
FROM processing_status
WHERE network = ?
`

type GetProcessingStatusRow struct {
	LastProcessedBlockNumber int64
	LastProcessedBlockHash   string
}

func (q *Queries) GetProcessingStatus(ctx context.Context, network string) (GetProcessingStatusRow, error) {
	row := q.db.QueryRowContext(ctx, getProcessingStatus, network)
	var i GetProcessingStatusRow
	err := row.Scan(&i.LastProcessedBlockNumber, &i.LastProcessedBlockHash)
	return i, err
}

const upsertProcessingStatus = `
INSERT INTO processing_status (network, last_processed_block_number, last_processed_block_hash)
VALUES (?, ?, ?)
ON CONFLICT (network) DO UPDATE SET
    last_processed_block_number = excluded.last_processed_block_number,
    last_processed_block_hash = excluded.last_processed_block_hash
WHERE excluded.last_processed_block_number >= processing_status.last_processed_block_number
`

type UpsertProcessingStatusParams struct {
	Network                  string
	LastProcessedBlockNumber int64
	LastProcessedBlockHash   string
}

func (q *Queries) UpsertProcessingStatus(ctx context.Context, arg UpsertProcessingStatusParams) error {
	_, err := q.db.ExecContext(ctx, upsertProcessingStatus,
		arg.Network,
		arg.LastProcessedBlockNumber,
		arg.LastProcessedBlockHash,
	)
	return err
}
