package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the introspected schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		format, _ := cmd.Flags().GetString("format")

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snapshot, err := sess.seeder().Introspect(ctx)
		if err != nil {
			return err
		}

		switch strings.ToLower(format) {
		case "json":
			data, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case "yaml", "yml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(snapshot)
		case "table", "":
			printSchema(snapshot)
		default:
			return fmt.Errorf("unknown format %q (use table, json or yaml)", format)
		}
		return nil
	},
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Show the foreign key safe insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snapshot, err := sess.seeder().Introspect(ctx)
		if err != nil {
			return err
		}

		ignored := make(map[string]bool)
		for _, name := range rules.NormalizeTableList(append(append([]string{}, sess.cfg.IgnoreTables...), sess.rules.Get().Excluded()...)) {
			ignored[name] = true
		}
		var tables []schema.Table
		for _, t := range snapshot.Tables {
			if !ignored[t.Name] {
				tables = append(tables, t)
			}
		}

		graph := seeder.NewDependencyGraph(tables)
		order, cyclic := graph.BuildInsertionOrder()
		inCycle := make(map[string]bool, len(cyclic))
		for _, name := range cyclic {
			inCycle[name] = true
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Table", "Depends on", "Cycle"})
		for i, name := range order {
			cycle := ""
			if inCycle[name] {
				cycle = "⚠️"
			}
			t.AppendRow(table.Row{i + 1, name, strings.Join(graph.Dependencies(name), ", "), cycle})
		}
		t.Render()

		if len(cyclic) > 0 {
			color.Yellow("⚠️  Foreign key cycle, order not guaranteed for: %s", strings.Join(cyclic, ", "))
		}
		return nil
	},
}

func printSchema(snapshot *schema.Schema) {
	color.Cyan("📊 %s (%s), %d tables", snapshot.Database, snapshot.Dialect, len(snapshot.Tables))
	for i := range snapshot.Tables {
		tbl := &snapshot.Tables[i]
		fmt.Println()
		if tbl.IsJunction() {
			color.New(color.Bold).Printf("%s (pivot)\n", tbl.Name)
		} else {
			color.New(color.Bold).Println(tbl.Name)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Column", "Type", "Raw", "Nullable", "Key", "References"})
		for _, col := range tbl.Columns {
			ref := ""
			if col.ForeignKey != nil {
				ref = col.ForeignKey.String()
			}
			t.AppendRow(table.Row{col.Name, col.Type, col.RawType, col.Nullable, keyLabel(col), ref})
		}
		t.Render()
	}
}

func keyLabel(col schema.Column) string {
	var parts []string
	if col.PrimaryKey {
		parts = append(parts, "PK")
	}
	if col.AutoIncrement {
		parts = append(parts, "AI")
	}
	if col.Unique {
		parts = append(parts, "UQ")
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(orderCmd)

	schemaCmd.Flags().String("format", "table", "Output format: table, json or yaml")
}
