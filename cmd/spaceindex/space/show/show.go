package show

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func Show() *cli.Command {
	cfg := struct {
		address string
	}{}

	return &cli.Command{
		Name:  "show",
		Usage: "Print an indexed space as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "address",
				Usage:       "address of the space",
				Required:    true,
				Destination: &cfg.address,
			},
		},
		Action: func(c *cli.Context) error {
			if !common.IsHexAddress(cfg.address) {
				return fmt.Errorf("invalid address %q", cfg.address)
			}

			store, err := env.Get(c).Store()
			if err != nil {
				return err
			}

			s, err := store.GetSpace(c.Context, common.HexToAddress(cfg.address))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}
