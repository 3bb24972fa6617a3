package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	Version = "0.4.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║   ██████╗ ███████╗██╗     ██╗██╗  ██╗        ║",
		"║   ██╔══██╗██╔════╝██║     ██║╚██╗██╔╝        ║",
		"║   ██████╔╝█████╗  ██║     ██║ ╚███╔╝         ║",
		"║   ██╔══██╗██╔══╝  ██║     ██║ ██╔██╗         ║",
		"║   ██║  ██║███████╗███████╗██║██╔╝ ██╗        ║",
		"║   ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝╚═╝  ╚═╝        ║",
		"║                                              ║",
		"║      🌱 Schema-driven synthetic data 🌱      ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                 ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "relix",
	Short: "Fill an existing database with realistic synthetic rows",
	Long: `
relix reads the live schema of your database, works out a foreign key safe
insertion order and fills every table with generated rows.

Values come from, in order: column rules in the rules file, foreign keys
(declared or guessed from <name>_id columns), column name heuristics and
finally a type based fallback. Pivot tables get distinct key combinations
sampled from the rows that already exist.

Database Support:
- PostgreSQL
- MySQL / MariaDB
- SQLite`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("relix version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./relix.config.json)")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Write diagnostic logs to stderr")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("relix.config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || cfgFile != "" {
			color.Yellow("⚠️  Could not read config file: %v", err)
		}
	}
}

// newLogger writes development style logs to stderr with --verbose and
// discards them otherwise.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
