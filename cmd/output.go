// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/relaysql/schemax/pkg/migration"
)

func printPlan(ms []*migration.Migration) {
	if len(ms) == 0 {
		fmt.Println("(empty plan)")
		return
	}
	for _, m := range ms {
		fmt.Printf("%s.%s\n", m.App, m.Name)
	}
}
