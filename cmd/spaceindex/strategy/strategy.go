package strategy

import (
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/strategy/add"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/strategy/list"
	"github.com/urfave/cli/v2"
)

func Strategy() *cli.Command {
	return &cli.Command{
		Name:  "strategy",
		Usage: "Manage execution strategies",
		Subcommands: []*cli.Command{
			add.Add(),
			list.List(),
		},
	}
}
