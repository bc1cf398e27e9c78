package metadata

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func Metadata() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Inspect metadata documents",
		Subcommands: []*cli.Command{
			cat(),
		},
	}
}

func cat() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Fetch a metadata document through the configured sources",
		ArgsUsage: "ipfs://<cid>[/path]",
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			uri := c.Args().First()
			if uri == "" {
				return fmt.Errorf("uri is required")
			}

			p, err := ipfs.ParseURI(uri)
			if err != nil {
				return err
			}

			fetcher, err := env.Get(c).Fetcher()
			if err != nil {
				return err
			}

			data, err := fetcher.Cat(ctx, p.String())
			if err != nil {
				return err
			}

			log.Debug("metadata document fetched", "path", p, "size", humanize.Bytes(uint64(len(data))))

			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
