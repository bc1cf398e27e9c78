package create

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/spaceindex/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func Create() *cli.Command {
	cfg := struct {
		address     string
		metadataURI string
		block       uint64
	}{}

	return &cli.Command{
		Name:  "create",
		Usage: "Index a new space and resolve its metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "address",
				Usage:       "address of the space",
				Required:    true,
				Destination: &cfg.address,
			},
			&cli.StringFlag{
				Name:        "metadata-uri",
				Usage:       "metadata URI of the space",
				Destination: &cfg.metadataURI,
			},
			&cli.Uint64Flag{
				Name:        "block",
				Usage:       "creation block number",
				Destination: &cfg.block,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			if !common.IsHexAddress(cfg.address) {
				return fmt.Errorf("invalid address %q", cfg.address)
			}

			ix, err := env.Get(c).Indexer()
			if err != nil {
				return err
			}

			err = ix.HandleSpaceCreated(ctx, indexer.SpaceCreated{
				Space:       common.HexToAddress(cfg.address),
				MetadataURI: cfg.metadataURI,
				BlockNumber: cfg.block,
			})
			if err != nil {
				return err
			}

			fmt.Println("space created:", common.HexToAddress(cfg.address).Hex())
			return nil
		},
	}
}
