package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormspec/queryspec/internal/commands"
)

var version = "dev"

func main() {
	var configDir string

	root := &cobra.Command{
		Use:   "queryspec",
		Short: "Provider independent verification of ORM query translation",
		Long: `queryspec runs a catalog of query scenarios against relational providers and
checks every result against an in-memory evaluation of the same query over
the seeded reference data.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commands.SetConfigDir(configDir)
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "directory holding queryspec.toml")

	root.AddCommand(
		commands.NewSeedCmd(),
		commands.NewVerifyCmd(),
		commands.NewScenariosCmd(),
		commands.NewVersionCmd(version),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
