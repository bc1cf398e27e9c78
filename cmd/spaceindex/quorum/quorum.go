package quorum

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	decoder "github.com/Arkiv-Network/spaceindex/spaceindex/quorum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func Quorum() *cli.Command {
	cfg := struct {
		txHash string
	}{}

	return &cli.Command{
		Name:      "quorum",
		Usage:     "Decode the quorum from avatar deployment call data",
		ArgsUsage: "[0x-calldata]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "tx",
				Usage:       "read the call data of this transaction instead",
				Destination: &cfg.txHash,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			var input []byte

			switch {
			case cfg.txHash != "":
				client, err := ethclient.DialContext(ctx, env.Get(c).Config.RPC.URL)
				if err != nil {
					return fmt.Errorf("failed to connect to the Ethereum client: %w", err)
				}
				defer client.Close()

				tx, _, err := client.TransactionByHash(ctx, common.HexToHash(cfg.txHash))
				if err != nil {
					return fmt.Errorf("failed to get transaction %s: %w", cfg.txHash, err)
				}
				input = tx.Data()
			case c.Args().Present():
				decoded, err := hexutil.Decode(c.Args().First())
				if err != nil {
					return fmt.Errorf("failed to decode call data: %w", err)
				}
				input = decoded
			default:
				return fmt.Errorf("call data or --tx is required")
			}

			q, err := decoder.Extract(input)
			if err != nil {
				return fmt.Errorf("quorum absent: %w", err)
			}

			fmt.Println(q.String())
			return nil
		},
	}
}
