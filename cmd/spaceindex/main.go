package main

import (
	"log"
	"os"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/index"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/metadata"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/quorum"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/space"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/strategy"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	opts := &env.Options{}

	app := &cli.App{
		Name:  "spaceindex",
		Usage: "Governance space indexer",
		Flags: env.Flags(opts),
		Before: func(c *cli.Context) error {
			return env.Setup(c, opts)
		},
		After: env.Close,

		Commands: []*cli.Command{
			quorum.Quorum(),
			strategy.Strategy(),
			space.Space(),
			index.Index(),
			metadata.Metadata(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
