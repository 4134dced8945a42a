package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ormspec/queryspec/internal/querytest"
)

// NewScenariosCmd creates the scenarios command.
func NewScenariosCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenarios of the query catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suites, err := selectSuites(filter)
			if err != nil {
				return err
			}
			return printScenarios(cmd.OutOrStdout(), suites)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "regular expression over suite/scenario names")
	return cmd
}

func printScenarios(w io.Writer, suites []querytest.Suite) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUITE\tSCENARIO\tFIXTURE")
	fmt.Fprintln(tw, "-----\t--------\t-------")
	total := 0
	for _, s := range suites {
		for _, sc := range s.Scenarios {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, sc.Name, sc.Fixture)
			total++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d scenarios in %d suites\n", total, len(suites))
	return nil
}
