package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-views/pkg/resources"
)

func newListCmd(deps Deps, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List renderable views under the template root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := listViews(flags.root)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(deps.Stdout, id)
			}
			return nil
		},
	}
}

func listViews(root string) ([]string, error) {
	res, err := resources.Dir(root)
	if err != nil {
		return nil, err
	}
	return res.Views()
}
