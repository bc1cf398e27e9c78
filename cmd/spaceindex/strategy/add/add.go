package add

import (
	"fmt"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/spaceindex/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

func Add() *cli.Command {
	cfg := struct {
		address string
		typ     string
		input   string
		block   uint64
	}{}

	return &cli.Command{
		Name:  "add",
		Usage: "Record an execution strategy proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "address",
				Usage:       "address of the strategy proxy",
				Required:    true,
				Destination: &cfg.address,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "strategy type, e.g. " + indexer.AvatarStrategyType,
				Required:    true,
				Destination: &cfg.typ,
			},
			&cli.StringFlag{
				Name:        "input",
				Usage:       "0x call data of the deployment transaction, used to decode the quorum",
				Destination: &cfg.input,
			},
			&cli.Uint64Flag{
				Name:        "block",
				Usage:       "deployment block number",
				Destination: &cfg.block,
			},
		},
		Action: func(c *cli.Context) error {
			if !common.IsHexAddress(cfg.address) {
				return fmt.Errorf("invalid address %q", cfg.address)
			}

			var input []byte
			if cfg.input != "" {
				decoded, err := hexutil.Decode(cfg.input)
				if err != nil {
					return fmt.Errorf("failed to decode input: %w", err)
				}
				input = decoded
			}

			store, err := env.Get(c).Store()
			if err != nil {
				return err
			}

			strategy := indexer.NewExecutionStrategy(common.HexToAddress(cfg.address), cfg.typ, input, cfg.block)

			err = store.SaveExecutionStrategy(c.Context, strategy)
			if err != nil {
				return fmt.Errorf("failed to save execution strategy: %w", err)
			}

			fmt.Println("strategy:", strategy.Key(), strategy.Type)
			if strategy.Quorum != nil {
				fmt.Println("quorum:", strategy.Quorum.Dec())
			}
			return nil
		},
	}
}
