// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func dropCmd(register RegisterFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the bookkeeping table, if it is empty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mg, err := NewMigrator(ctx, register)
			if err != nil {
				return err
			}

			if err := mg.DropMigrationTableIfExists(ctx); err != nil {
				return err
			}

			fmt.Println("bookkeeping table dropped")
			return nil
		},
	}
}
