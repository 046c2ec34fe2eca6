package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewEnvCommand creates the env command.
func NewEnvCommand() *cobra.Command {
	var runEnv bool

	cmd := &cobra.Command{
		Use:   "env <product>",
		Short: "Print the resolved environment of a product",
		Long: `Print the environment a product's commands run in, as resolved by its
modules' setup scripts on top of the current process environment.`,
		Example: `  # Build environment of product "app"
  strata env app

  # Environment the built target would be launched with
  strata env app --run`,
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

			base := processEnvironment()
			var env map[string]string
			if runEnv {
				if err := product.SetupRunEnvironment(base); err != nil {
					return err
				}
				env = product.RunEnvironment()
			} else {
				if err := product.SetupBuildEnvironment(base); err != nil {
					return err
				}
				env = product.BuildEnvironment()
			}

			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, env[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runEnv, "run", false, "Print the run environment instead of the build environment")
	return cmd
}
