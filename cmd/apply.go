// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relaysql/schemax/cmd/flags"
	"github.com/relaysql/schemax/pkg/plan"
)

func applyCmd(register RegisterFunc) *cobra.Command {
	c := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mg, err := NewMigrator(ctx, register)
			if err != nil {
				return err
			}

			p := plan.Plan{Type: plan.Apply, App: flags.App(), Migration: flags.Migration()}

			if flags.PrintPlan() {
				resolved, err := mg.GenerateMigrationPlan(ctx, p)
				if err != nil {
					return err
				}
				printPlan(resolved)
				return nil
			}

			if flags.Check() {
				return mg.Check(ctx, p)
			}

			sp, _ := pterm.DefaultSpinner.WithText("Applying migrations...").Start()

			applyFn := mg.Apply
			if flags.Fake() {
				applyFn = mg.FakeApply
			}

			applied, err := applyFn(ctx, p)
			if err != nil {
				sp.Fail(fmt.Sprintf("Failed to apply migrations: %s", err))
				return err
			}

			sp.Success(fmt.Sprintf("Applied %d migration(s)", len(applied)))
			return nil
		},
	}

	flags.TargetFlags(c)
	c.Flags().Bool("check", false, "Exit non-zero if any migration is pending, without applying")
	c.Flags().Bool("fake", false, "Mark migrations applied without running their operations")
	c.Flags().Bool("plan", false, "Print the resolved plan instead of applying it")

	viper.BindPFlag("CHECK", c.Flags().Lookup("check"))
	viper.BindPFlag("FAKE", c.Flags().Lookup("fake"))
	viper.BindPFlag("PLAN", c.Flags().Lookup("plan"))

	return c
}
