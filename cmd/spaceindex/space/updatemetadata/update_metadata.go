package updatemetadata

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/spaceindex/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func UpdateMetadata() *cli.Command {
	cfg := struct {
		address     string
		metadataURI string
		block       uint64
	}{}

	return &cli.Command{
		Name:  "update-metadata",
		Usage: "Set the metadata URI of an indexed space and resolve it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "address",
				Usage:       "address of the space",
				Required:    true,
				Destination: &cfg.address,
			},
			&cli.StringFlag{
				Name:        "metadata-uri",
				Usage:       "new metadata URI",
				Required:    true,
				Destination: &cfg.metadataURI,
			},
			&cli.Uint64Flag{
				Name:        "block",
				Usage:       "block number of the update",
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

			return ix.HandleMetadataURIUpdated(ctx, indexer.MetadataURIUpdated{
				Space:       common.HexToAddress(cfg.address),
				MetadataURI: cfg.metadataURI,
				BlockNumber: cfg.block,
			})
		},
	}
}
