package cmd

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/relix/pkg/prompt"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print a prompt that asks an assistant to write the rules file",
	Long: `
Print the live schema as instructions for an AI assistant. Paste its JSON
reply into "relix rules save -" to store it.`,
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

		excluded := rules.NormalizeTableList(append(append([]string{}, sess.cfg.IgnoreTables...), sess.rules.Get().Excluded()...))
		fmt.Println(prompt.Build(snapshot, excluded))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
}
