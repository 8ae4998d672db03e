// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type statusReport struct {
	Registered int    `json:"registered"`
	Applied    int    `json:"applied"`
	Pending    int    `json:"pending"`
	Status     string `json:"status"`
}

func statusCmd(register RegisterFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many registered migrations are applied or pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mg, err := NewMigrator(ctx, register)
			if err != nil {
				return err
			}

			registered := mg.Registered()
			applied, err := mg.ListApplied(ctx)
			if err != nil {
				return err
			}

			pending := len(registered) - len(applied)
			status := "complete"
			switch {
			case len(applied) == 0:
				status = "no migrations applied"
			case pending > 0:
				status = "pending migrations"
			}

			report := statusReport{
				Registered: len(registered),
				Applied:    len(applied),
				Pending:    pending,
				Status:     status,
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
