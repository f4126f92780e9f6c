package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice-saas/lattice/internal/interfaces/cli/migrate"
	"github.com/lattice-saas/lattice/internal/interfaces/cli/server"
	"github.com/lattice-saas/lattice/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "lattice",
		Short:   "Lattice - multi-tenant access control service",
		Long:    `Lattice resolves role-based permission checks with tenant isolation, decision caching and an audit trail.`,
		Version: version.Version,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
