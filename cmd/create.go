// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
)

const migrationTemplate = `// SPDX-License-Identifier: Apache-2.0

package migrations

import "github.com/relaysql/schemax/pkg/migration"

// {{.Name}} returns the {{.App}}.{{.Migration}} migration; pass it to Migrator.Add to register it.
func {{.Name}}() *migration.Migration {
	return migration.New("{{.App}}", "{{.Migration}}",
		&migration.SQLOperation{
			UpSQL:   migration.DialectSQL{},
			DownSQL: migration.DialectSQL{},
		},
	)
}
`

func createCmd() *cobra.Command {
	var dir string

	c := &cobra.Command{
		Use:   "create <app> <name>",
		Short: "Scaffold a new migration source file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, name := args[0], args[1]

			tmpl, err := template.New("migration").Parse(migrationTemplate)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, fmt.Sprintf("%s_%s.go", app, name))
			f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()

			data := struct{ App, Migration, Name string }{
				App:       app,
				Migration: name,
				Name:      exportedFuncName(app, name),
			}
			if err := tmpl.Execute(f, data); err != nil {
				return err
			}

			fmt.Printf("created %s\n", path)
			return nil
		},
	}

	c.Flags().StringVar(&dir, "dir", ".", "Directory to write the migration file into")
	return c
}

// exportedFuncName turns "billing", "add_invoices" into "BillingAddInvoices"
// so the scaffolded file's constructor is a valid, collision-resistant
// exported identifier.
func exportedFuncName(app, name string) string {
	return toPascalCase(app) + toPascalCase(name)
}

func toPascalCase(s string) string {
	out := make([]rune, 0, len(s))
	upperNext := true
	for _, r := range s {
		switch {
		case r == '_' || r == '-':
			upperNext = true
		case upperNext:
			out = append(out, toUpper(r))
			upperNext = false
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
