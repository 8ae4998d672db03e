// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DatabaseURL() string {
	return viper.GetString("DATABASE_URL")
}

func Prefix() string {
	return viper.GetString("PREFIX")
}

func App() string {
	return viper.GetString("APP")
}

func Migration() string {
	return viper.GetString("MIGRATION")
}

func Check() bool {
	return viper.GetBool("CHECK")
}

func Fake() bool {
	return viper.GetBool("FAKE")
}

func PrintPlan() bool {
	return viper.GetBool("PLAN")
}

func All() bool {
	return viper.GetBool("ALL")
}

// DatabaseFlags registers the connection flags shared by every subcommand.
func DatabaseFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("database-url", "", "Database connection URI (postgres://, mysql://, or a sqlite file path)")
	cmd.PersistentFlags().String("prefix", "", "Bookkeeping table name prefix")

	viper.BindPFlag("DATABASE_URL", cmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("PREFIX", cmd.PersistentFlags().Lookup("prefix"))
}

// TargetFlags registers --app/--migration on a subcommand that can target a
// specific migration.
func TargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("app", "", "Restrict the plan to this app")
	cmd.Flags().String("migration", "", "Restrict the plan to end at this migration (requires --app)")

	viper.BindPFlag("APP", cmd.Flags().Lookup("app"))
	viper.BindPFlag("MIGRATION", cmd.Flags().Lookup("migration"))
}
