// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the blastsets CLI: set-enrichment
// queries against a graph of labeled target sets, a Monte-Carlo benchmark
// of the scoring measures, and a local SQLite snapshot of set collections.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/blastsets/internal/secrets"
	"github.com/pdiddy/blastsets/internal/setstore"
	"github.com/pdiddy/blastsets/internal/source"
	"github.com/pdiddy/blastsets/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultNeo4jURI  = "neo4j://localhost"
	defaultNeo4jUser = "neo4j"
	defaultDBPath    = "index/sets.db"
)

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger writes structured diagnostics to stderr.
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// rootCmd is the base command for the blastsets CLI.
var rootCmd = &cobra.Command{
	Use:   "blastsets",
	Short: "Set-enrichment analysis over labeled target sets",
	Long: `blastsets scores how significant the overlap between a query set of
identifiers and each target set of a collection is (binomial,
hypergeometric, chi2 or coverage), ranks the targets and optionally
adjusts for multiple testing.

Target sets come from a Neo4j graph ((:Keyword)-[]->(:Gene) by default)
or from a local SQLite snapshot built with "sets import". The simulate
subcommand benchmarks the measures on synthetic noisy queries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "keys", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: blastsets.yaml in . or ~/.config/blastsets)")
	pf.BoolP("verbose", "v", false, "print debug diagnostics to stderr")
	pf.String("backend", string(types.BackendNeo4j), "target-set source: neo4j or sqlite")
	pf.String("db", defaultDBPath, "SQLite snapshot path (sqlite backend and sets subcommands)")
	pf.String("universe-label", "Gene", "node label of universe elements (neo4j backend)")
	pf.String("neo4j-uri", "", "Neo4j URI (default "+defaultNeo4jURI+")")
	pf.String("neo4j-user", "", "Neo4j user (default "+defaultNeo4jUser+")")
	pf.String("neo4j-password", "", "Neo4j password (prefer .secrets/neo4j-password)")
	pf.String("neo4j-database", "", "Neo4j database name (default: server default)")

	for key, flag := range map[string]string{
		"backend":        "backend",
		"db":             "db",
		"universe_label": "universe-label",
		"neo4j.uri":      "neo4j-uri",
		"neo4j.user":     "neo4j-user",
		"neo4j.password": "neo4j-password",
		"neo4j.database": "neo4j-database",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("blastsets")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "blastsets"))
		}
	}

	viper.SetEnvPrefix("BLASTSETS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// neo4jConfig resolves connection settings: flags, config file and
// environment first, then .secrets/, then built-in defaults.
func neo4jConfig() types.Neo4jConfig {
	cfg := types.Neo4jConfig{
		URI:            viper.GetString("neo4j.uri"),
		User:           viper.GetString("neo4j.user"),
		Password:       viper.GetString("neo4j.password"),
		Database:       viper.GetString("neo4j.database"),
		UniverseLabel:  viper.GetString("universe_label"),
		ConnectTimeout: 10 * time.Second,
		MaxRetries:     3,
	}
	loadedSecrets.ApplyNeo4j(&cfg)
	if cfg.URI == "" {
		cfg.URI = defaultNeo4jURI
	}
	if cfg.User == "" {
		cfg.User = defaultNeo4jUser
	}
	return cfg
}

// openStore opens the SQLite snapshot named by --db.
func openStore() (*setstore.Store, error) {
	return setstore.Open(types.SetStoreConfig{Path: viper.GetString("db")})
}

// openSource opens the target-set source selected by --backend.
func openSource(ctx context.Context) (source.Source, error) {
	switch backend := types.SourceBackend(viper.GetString("backend")); backend {
	case types.BackendNeo4j, "":
		cfg := neo4jConfig()
		logger.Debug("connecting to neo4j", "uri", cfg.URI, "user", cfg.User, "database", cfg.Database)
		return source.OpenNeo4j(ctx, cfg, logger)
	case types.BackendSQLite:
		return openStore()
	default:
		return nil, fmt.Errorf("unsupported backend %q: use neo4j or sqlite", backend)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
