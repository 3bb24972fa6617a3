package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and edit the rules file",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalized rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := rulesRepository()
		if err != nil {
			return err
		}

		rs, err := repo.Load()
		if err != nil {
			return err
		}
		data, err := rs.Marshal()
		if err != nil {
			return err
		}
		color.Cyan("📄 %s", repo.Path())
		fmt.Print(string(data))
		if len(rs.Dropped) > 0 {
			color.Yellow("⚠️  Ignored mistyped fields: %s", strings.Join(rs.Dropped, ", "))
		}
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the rules file before seeding",
	Long: `
Check that the rules file exists, parses, has at least one table and only
uses known strategies and faker methods. With --against-db the tables and
columns it names are also checked against the live schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		againstDB, _ := cmd.Flags().GetBool("against-db")

		repo, err := rulesRepository()
		if err != nil {
			return err
		}
		rs, err := repo.GetRequired()
		if err != nil {
			return err
		}
		if err := seeder.CheckRuleset(rs); err != nil {
			return err
		}

		if againstDB {
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
			for name, tr := range rs.Tables {
				t := snapshot.Table(name)
				if t == nil {
					color.Yellow("⚠️  %s: table does not exist", name)
					continue
				}
				for column := range tr.Columns {
					if !t.HasColumn(column) {
						color.Yellow("⚠️  %s.%s: column does not exist", name, column)
					}
				}
			}
		}

		color.Green("✅ %s is valid (%d tables, %d excluded)", repo.Path(), len(rs.Tables), len(rs.ExcludeTables))
		return nil
	},
}

var rulesSaveCmd = &cobra.Command{
	Use:   "save <file|->",
	Short: "Validate a rules document and store it as the rules file",
	Long: `
Read a rules document from a file, or from stdin when the argument is "-",
normalize it and write it to the configured rules path. Documents without
any tables are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := rulesRepository()
		if err != nil {
			return err
		}

		var raw []byte
		if args[0] == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read rules: %w", err)
		}

		rs, err := repo.Save(string(raw))
		if err != nil {
			return err
		}
		color.Green("✅ Saved rules for %d tables to %s", len(rs.Tables), repo.Path())
		return nil
	},
}

var rulesExcludeCmd = &cobra.Command{
	Use:   "exclude <table>...",
	Short: "Replace the list of tables never seeded",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := rulesRepository()
		if err != nil {
			return err
		}

		rs, err := repo.SetExcludedTables(splitList(args))
		if err != nil {
			return err
		}
		color.Green("✅ Excluded tables: %s", strings.Join(rs.ExcludeTables, ", "))
		return nil
	},
}

func rulesRepository() (*rules.Repository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return rules.NewRepository(cfg.RulesPath), nil
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd, rulesValidateCmd, rulesSaveCmd, rulesExcludeCmd)

	rulesValidateCmd.Flags().Bool("against-db", false, "Also check table and column names against the database")
}
