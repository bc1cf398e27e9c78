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
		Usage: "List indexed execution strategies",
		Action: func(c *cli.Context) error {
			store, err := env.Get(c).Store()
			if err != nil {
				return err
			}

			strategies, err := store.ListExecutionStrategies(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list execution strategies: %w", err)
			}

			if len(strategies) == 0 {
				fmt.Println("No execution strategies found")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Address", "Type", "Quorum", "Block"})
			for _, s := range strategies {
				q := "-"
				if s.Quorum != nil {
					q = s.Quorum.Dec()
				}
				table.Append([]string{s.Key(), s.Type, q, strconv.FormatUint(s.CreatedAtBlock, 10)})
			}
			table.Render()

			return nil
		},
	}
}
