// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaysql/schemax/pkg/migration"
)

func listCmd(register RegisterFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered migrations and whether each is applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mg, err := NewMigrator(ctx, register)
			if err != nil {
				return err
			}

			applied, err := mg.AppliedIdentities(ctx)
			if err != nil {
				return err
			}
			appliedSet := make(map[migration.Identity]bool, len(applied))
			for _, id := range applied {
				appliedSet[id] = true
			}

			for _, m := range mg.Registered() {
				status := "pending"
				if appliedSet[m.Id()] {
					status = "applied"
				}
				fmt.Printf("%-8s %s.%s\n", status, m.App, m.Name)
			}

			return nil
		},
	}
}
