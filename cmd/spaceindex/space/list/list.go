package list

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Arkiv-Network/spaceindex/cmd/spaceindex/pkg/env"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

func List() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List indexed spaces",
		Action: func(c *cli.Context) error {
			store, err := env.Get(c).Store()
			if err != nil {
				return err
			}

			spaces, err := store.ListSpaces(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list spaces: %w", err)
			}

			if len(spaces) == 0 {
				fmt.Println("No spaces found")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Address", "Name", "Executors", "Metadata URI"})
			for _, s := range spaces {
				table.Append([]string{s.ID.Hex(), s.Name, strconv.Itoa(len(s.Executors)), s.MetadataURI})
			}
			table.Render()

			return nil
		},
	}
}
