package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ormspec/queryspec/internal/provider"
	"github.com/ormspec/queryspec/internal/runner"
)

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	var providerName, filter string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the reference fixtures into a provider's store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, providerName, filter)
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "provider to seed (default: first of providers.enabled)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "seed only the fixtures of matching scenarios")
	return cmd
}

func runSeed(cmd *cobra.Command, providerName, filter string) error {
	ctx, cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if providerName == "" {
		providerName = cfg.Providers.Enabled[0]
	}
	suites, err := selectSuites(filter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Runner.Timeout)
	defer cancel()

	registry := provider.Default()
	defer func() { _ = registry.Close(context.Background()) }()

	seeded, err := runner.Seed(ctx, cfg, registry, providerName, suites)
	if err != nil {
		return fmt.Errorf("seeding %s: %w", providerName, err)
	}

	out := cmd.OutOrStdout()
	for _, name := range seeded {
		color.New(color.FgGreen).Fprintf(out, "  ✓ %s\n", name)
	}
	fmt.Fprintf(out, "%d fixtures ready on %s\n", len(seeded), providerName)
	return nil
}
