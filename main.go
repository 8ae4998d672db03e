// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/relaysql/schemax/cmd"
	"github.com/relaysql/schemax/pkg/migrator"
)

func main() {
	register := func(mg *migrator.Migrator) {}

	if err := cmd.Execute(register); err != nil {
		os.Exit(1)
	}
}
