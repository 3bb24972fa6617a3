package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill every table with synthetic rows",
	Long: `
Introspect the database, order tables by their foreign keys and insert
generated rows into each one.

Tables listed in ignore_tables or in the rules file's exclude_tables are
skipped. --truncate empties the seeded tables first (children before
parents) and asks for confirmation unless --force is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		count, _ := cmd.Flags().GetInt("count")
		truncate, _ := cmd.Flags().GetBool("truncate")
		only, _ := cmd.Flags().GetStringSlice("tables")
		seed, _ := cmd.Flags().GetInt64("seed")
		requireRules, _ := cmd.Flags().GetBool("require-rules")

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		rs, err := sess.loadRules(requireRules)
		if err != nil {
			return err
		}

		if truncate {
			ok, err := confirm(cmd, "⚠️  This deletes existing rows before seeding. Continue?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("❌ Seeding cancelled")
				return nil
			}
		}

		summary, err := sess.seeder().Seed(ctx, nil, rs, seeder.SeedOptions{
			Count:    count,
			Truncate: truncate,
			Only:     splitList(only),
			Seed:     seed,
		})
		if summary != nil {
			printSummary(summary)
		}
		return err
	},
}

var seedTableCmd = &cobra.Command{
	Use:   "seed-table <table>",
	Short: "Fill a single table with synthetic rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		count, _ := cmd.Flags().GetInt("count")
		truncate, _ := cmd.Flags().GetBool("truncate")
		seed, _ := cmd.Flags().GetInt64("seed")

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		rs, err := sess.loadRules(false)
		if err != nil {
			return err
		}

		if truncate {
			ok, err := confirm(cmd, fmt.Sprintf("⚠️  This deletes every row in %s first. Continue?", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("❌ Seeding cancelled")
				return nil
			}
		}

		result, err := sess.seeder().SeedTable(ctx, nil, args[0], rs, seeder.SeedOptions{
			Count:    count,
			Truncate: truncate,
			Seed:     seed,
		})
		if err != nil {
			return err
		}
		color.Green("✅ Inserted %d rows into %s (%s)", result.Rows, result.Table, result.Method)
		return nil
	},
}

func printSummary(summary *seeder.Summary) {
	if len(summary.Tables) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Table", "Method", "Rows", "Note"})
		for _, r := range summary.Tables {
			t.AppendRow(table.Row{r.Table, r.Method, r.Rows, junctionNote(r.Junction)})
		}
		t.AppendFooter(table.Row{"", "", summary.TotalRows(), ""})
		t.Render()
	}

	if len(summary.Skipped) > 0 {
		color.Yellow("⏭️  Skipped: %v", summary.Skipped)
	}
	fmt.Printf("🎲 Seed: %d (pass --seed %d to reproduce)\n", summary.Seed, summary.Seed)
}

func junctionNote(jr *seeder.JunctionResult) string {
	switch {
	case jr == nil:
		return ""
	case jr.Skipped:
		return fmt.Sprintf("no values for %s", jr.EmptyColumn)
	case jr.Shortfall > 0:
		return fmt.Sprintf("%d of %d requested", jr.Generated, jr.Requested)
	case jr.Target < jr.Requested:
		return fmt.Sprintf("capped at %d combinations", jr.Target)
	default:
		return ""
	}
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(seedTableCmd)

	seedCmd.Flags().Int("count", 0, "Rows per table (overrides rules and defaults)")
	seedCmd.Flags().Bool("truncate", false, "Empty the seeded tables first")
	seedCmd.Flags().StringSlice("tables", nil, "Only seed these tables")
	seedCmd.Flags().Int64("seed", 0, "Random seed for a reproducible run")
	seedCmd.Flags().Bool("require-rules", false, "Fail when the rules file is missing or empty")

	seedTableCmd.Flags().Int("count", 0, "Rows to insert")
	seedTableCmd.Flags().Bool("truncate", false, "Empty the table first")
	seedTableCmd.Flags().Int64("seed", 0, "Random seed for a reproducible run")
}
