// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads graph-database credentials from a directory of
// plain-text files. Each file holds one secret: the filename is the key and
// the trimmed contents are the value.
//
// Recognized keys: neo4j-uri, neo4j-user, neo4j-password, neo4j-database.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/blastsets/pkg/types"
)

// Key names understood by ApplyNeo4j.
const (
	KeyNeo4jURI      = "neo4j-uri"
	KeyNeo4jUser     = "neo4j-user"
	KeyNeo4jPassword = "neo4j-password"
	KeyNeo4jDatabase = "neo4j-database"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are logged and
// skipped.
func Load(dir string, logger *slog.Logger) (Secrets, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "key", name, "error", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Keys returns the loaded key names in sorted order, never the values.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyNeo4j fills the empty connection fields of cfg from s. Values
// already set by flags, config file or environment win.
func (s Secrets) ApplyNeo4j(cfg *types.Neo4jConfig) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.URI, KeyNeo4jURI)
	fill(&cfg.User, KeyNeo4jUser)
	fill(&cfg.Password, KeyNeo4jPassword)
	fill(&cfg.Database, KeyNeo4jDatabase)
}
