package cmd

import (
	"context"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/internal/codegen"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a Go seeding program for the current schema",
	Long: `
Generate one Go function per table plus SeedAll, which calls them in
foreign key order. Excluded and ignored tables are left out. Files edited
by hand are kept unless --force is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		out, _ := cmd.Flags().GetString("out")
		pkg, _ := cmd.Flags().GetString("package")
		count, _ := cmd.Flags().GetInt("count")
		force, _ := cmd.Flags().GetBool("force")

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snapshot, err := sess.seeder().Introspect(ctx)
		if err != nil {
			return err
		}

		if out == "" {
			out = sess.cfg.Codegen.Out
		}
		if pkg == "" {
			pkg = sess.cfg.Codegen.Package
		}

		res, err := codegen.New().Generate(snapshot, sess.rules.Get(), codegen.Options{
			Out:          out,
			Package:      pkg,
			Count:        count,
			DefaultCount: sess.cfg.Defaults.Count,
			Ignore:       sess.cfg.IgnoreTables,
			Force:        force,
		})
		if err != nil {
			return err
		}

		color.Green("✅ Generated %d files in %s", len(res.Generated), res.Path)
		if len(res.Skipped) > 0 {
			color.Yellow("⏭️  Skipped tables: %s", strings.Join(res.Skipped, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("out", "", "Output directory (default codegen.out)")
	generateCmd.Flags().String("package", "", "Go package name (default codegen.package)")
	generateCmd.Flags().Int("count", 0, "Rows per table baked into the generated calls")
}
