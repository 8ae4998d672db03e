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

func revertCmd(register RegisterFunc) *cobra.Command {
	c := &cobra.Command{
		Use:   "revert",
		Short: "Revert applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mg, err := NewMigrator(ctx, register)
			if err != nil {
				return err
			}

			if !flags.All() && flags.App() == "" {
				return errRevertTargetRequired
			}

			p := plan.Plan{Type: plan.Revert, App: flags.App(), Migration: flags.Migration()}
			if flags.All() {
				p.App = ""
				p.Migration = ""
			}

			if flags.PrintPlan() {
				resolved, err := mg.GenerateMigrationPlan(ctx, p)
				if err != nil {
					return err
				}
				printPlan(resolved)
				return nil
			}

			sp, _ := pterm.DefaultSpinner.WithText("Reverting migrations...").Start()

			revertFn := mg.Revert
			if flags.Fake() {
				revertFn = mg.FakeRevert
			}

			reverted, err := revertFn(ctx, p)
			if err != nil {
				sp.Fail(fmt.Sprintf("Failed to revert migrations: %s", err))
				return err
			}

			sp.Success(fmt.Sprintf("Reverted %d migration(s)", len(reverted)))
			return nil
		},
	}

	flags.TargetFlags(c)
	c.Flags().Bool("all", false, "Revert every applied migration")
	c.Flags().Bool("fake", false, "Delete bookkeeping rows without running operations")
	c.Flags().Bool("plan", false, "Print the resolved plan instead of reverting it")

	viper.BindPFlag("ALL", c.Flags().Lookup("all"))
	viper.BindPFlag("FAKE", c.Flags().Lookup("fake"))
	viper.BindPFlag("PLAN", c.Flags().Lookup("plan"))

	return c
}
