package index

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/spaceindex/sqlstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func Index() *cli.Command {
	cfg := struct {
		txHash string
	}{}

	return &cli.Command{
		Name:  "index",
		Usage: "Index the events of a transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "tx",
				Usage:       "transaction hash",
				Required:    true,
				Destination: &cfg.txHash,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			e := env.Get(c)

			lock := flock.New(e.Config.Database + ".lock")
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to lock database: %w", err)
			}
			if !locked {
				return fmt.Errorf("database %s is being indexed by another process", e.Config.Database)
			}
			defer lock.Unlock()

			client, err := ethclient.DialContext(ctx, e.Config.RPC.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to the Ethereum client: %w", err)
			}
			defer client.Close()

			hash := common.HexToHash(cfg.txHash)

			var (
				chainID *big.Int
				tx      *types.Transaction
				receipt *types.Receipt
			)

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				id, err := client.ChainID(egCtx)
				if err != nil {
					return fmt.Errorf("failed to get chain id: %w", err)
				}
				chainID = id
				return nil
			})
			eg.Go(func() error {
				t, pending, err := client.TransactionByHash(egCtx, hash)
				if err != nil {
					return fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
				}
				if pending {
					return errors.New("transaction is pending")
				}
				tx = t
				return nil
			})
			eg.Go(func() error {
				r, err := client.TransactionReceipt(egCtx, hash)
				if err != nil {
					return fmt.Errorf("failed to get receipt of %s: %w", hash.Hex(), err)
				}
				receipt = r
				return nil
			})

			err = eg.Wait()
			if err != nil {
				return err
			}

			ix, err := e.Indexer()
			if err != nil {
				return err
			}

			for _, l := range receipt.Logs {
				err = ix.HandleLog(ctx, l, tx.Data())
				if err != nil {
					return fmt.Errorf("failed to index log %d of %s: %w", l.Index, hash.Hex(), err)
				}
			}

			store, err := e.Store()
			if err != nil {
				return err
			}

			status, err := store.GetProcessingStatus(ctx, chainID.String())
			if err != nil {
				return err
			}
			if receipt.BlockNumber.Uint64() < status.LastProcessedBlockNumber {
				log.Info(
					"transaction is older than the last indexed block",
					"block", receipt.BlockNumber,
					"lastIndexed", status.LastProcessedBlockNumber,
				)
			}

			err = store.UpdateProcessingStatus(ctx, chainID.String(), sqlstore.ProcessingStatus{
				LastProcessedBlockNumber: receipt.BlockNumber.Uint64(),
				LastProcessedBlockHash:   receipt.BlockHash,
			})
			if err != nil {
				return err
			}

			log.Info("transaction indexed", "tx", hash, "logs", len(receipt.Logs), "block", receipt.BlockNumber)
			return nil
		},
	}
}
