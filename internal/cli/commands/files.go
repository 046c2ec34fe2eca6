package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFilesCommand creates the files command.
func NewFilesCommand() *cobra.Command {
	var rescan bool
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "files <product>",
		Short: "List the source files of a product",
		Example: `  # Files of product "app" as recorded in the build graph
  strata files app

  # Re-expand wildcards against the current source tree first
  strata files app --rescan`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, cleanup, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			product, err := findProduct(project, args[0])
			if err != nil {
				return err
			}

			if rescan {
				product.ExpandAllWildcards(product.SourceDirectory)
			}

			files := product.AllEnabledFiles()
			if includeDisabled {
				files = product.AllFiles()
			}
			for _, f := range files {
				tags := product.EffectiveFileTags(f)
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", f.AbsoluteFilePath, tags)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Re-expand wildcards against the filesystem")
	cmd.Flags().BoolVar(&includeDisabled, "all", false, "Include files of disabled groups")
	return cmd
}
