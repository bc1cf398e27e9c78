package space

import (
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/space/create"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/space/list"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/space/show"
	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/space/updatemetadata"
	"github.com/urfave/cli/v2"
)

func Space() *cli.Command {
	return &cli.Command{
		Name:  "space",
		Usage: "Manage spaces",
		Subcommands: []*cli.Command{
			create.Create(),
			updatemetadata.UpdateMetadata(),
			show.Show(),
			list.List(),
		},
	}
}
