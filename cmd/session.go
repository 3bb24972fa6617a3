package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/internal/config"
	"github.com/Lumos-Labs-HQ/relix/pkg/database"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session bundles what most commands need: config, an open connection and
// the rules file.
type session struct {
	cfg     *config.Config
	adapter database.Adapter
	rules   *rules.Repository
	logger  *zap.Logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	adapter, err := database.Open(ctx, cfg.Database.Provider, cfg.ConnectionParams())
	if err != nil {
		return nil, err
	}
	logger.Debug("connected",
		zap.String("dialect", adapter.Dialect()),
		zap.String("database", adapter.DatabaseName()))

	return &session{
		cfg:     cfg,
		adapter: adapter,
		rules:   rules.NewRepository(cfg.RulesPath),
		logger:  logger,
	}, nil
}

func (s *session) Close() {
	s.adapter.Close()
	s.logger.Sync()
}

func (s *session) seeder() *seeder.Seeder {
	return seeder.New(s.adapter,
		seeder.WithLogger(s.logger),
		seeder.WithIgnoreTables(s.cfg.IgnoreTables),
		seeder.WithDefaultCount(s.cfg.Defaults.Count),
		seeder.WithChunkSize(s.cfg.Defaults.ChunkSize),
		seeder.WithPreferFactories(s.cfg.Factories.Prefer),
	)
}

// loadRules reads the rules file; with required set a missing or empty file
// is an error instead of an empty ruleset. An undecodable file always fails.
func (s *session) loadRules(required bool) (*rules.Ruleset, error) {
	if required {
		return s.rules.GetRequired()
	}
	rs, err := s.rules.Load()
	if err != nil {
		return nil, err
	}
	if len(rs.Dropped) > 0 {
		color.Yellow("⚠️  Ignoring mistyped fields in %s: %s", s.rules.Path(), strings.Join(rs.Dropped, ", "))
		s.logger.Warn("rules fields dropped", zap.Strings("fields", rs.Dropped))
	}
	return rs, nil
}

func confirm(cmd *cobra.Command, question string) (bool, error) {
	force, _ := cmd.Flags().GetBool("force")
	if force {
		return true, nil
	}

	fmt.Printf("%s (yes/no): ", question)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return rules.NormalizeTableList(out)
}
