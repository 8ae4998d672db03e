// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relaysql/schemax/cmd/flags"
	"github.com/relaysql/schemax/internal/connstr"
	"github.com/relaysql/schemax/pkg/migrator"
)

// Version is the schemax version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("SCHEMAX")
	viper.AutomaticEnv()

	flags.DatabaseFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "schemax",
	SilenceUsage: true,
	Version:      Version,
	// apply and revert register flags under the same viper keys; rebinding
	// to the running subcommand's flags makes each read its own values.
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
}

// RegisterFunc registers a caller's migrations into a freshly opened
// Migrator. The CLI owns connecting to the configured database; the caller
// owns declaring migrations, per the core/CLI split.
type RegisterFunc func(mg *migrator.Migrator)

// NewMigrator opens the database URI configured via flags or environment,
// constructs a Migrator for its dialect, and lets register populate it.
func NewMigrator(ctx context.Context, register RegisterFunc) (*migrator.Migrator, error) {
	conn, kind, err := connstr.Open(flags.DatabaseURL())
	if err != nil {
		return nil, err
	}

	mg, err := migrator.New(conn, kind,
		migrator.WithPrefix(flags.Prefix()),
		migrator.WithLogger(migrator.NewLogger()),
	)
	if err != nil {
		return nil, err
	}

	register(mg)
	return mg, nil
}

// Execute wires every subcommand against register and runs the root
// command.
func Execute(register RegisterFunc) error {
	rootCmd.AddCommand(applyCmd(register))
	rootCmd.AddCommand(revertCmd(register))
	rootCmd.AddCommand(listCmd(register))
	rootCmd.AddCommand(dropCmd(register))
	rootCmd.AddCommand(statusCmd(register))
	rootCmd.AddCommand(createCmd())

	return rootCmd.Execute()
}
