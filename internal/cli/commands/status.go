package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the resolved project for the active configuration",
		Example: `  # Show the project stored for the default configuration
  strata status

  # Show a specific configuration
  strata status --profile gcc --variant release`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, cleanup, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:        %s\n", project.Name)
			fmt.Fprintf(out, "Configuration:  %s\n", project.ID())
			fmt.Fprintf(out, "Build dir:      %s\n", project.BuildDirectory)
			fmt.Fprintf(out, "Resolved:       %s\n", project.LastResolveTime.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Resolve id:     %s\n", project.ResolveID)

			products := project.AllProducts()
			fmt.Fprintf(out, "Products:       %d\n\n", len(products))
			for _, product := range products {
				state := "enabled"
				if !product.Enabled {
					state = "disabled"
				}
				nodes := 0
				if product.BuildData != nil {
					nodes = len(product.BuildData.Nodes)
				}
				fmt.Fprintf(out, "  %-24s %-9s %3d files, %3d build graph nodes\n",
					product.Name, state, len(product.AllFiles()), nodes)
			}
			return nil
		},
	}
}
