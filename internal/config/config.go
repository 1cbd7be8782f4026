// Package config loads mggraph settings from an HCL file.
//
//	store { backend = "sqlite"  path = "mggraph.db" }
//	neo4j { uri = "neo4j://localhost:7687"  database = "neo4j"  username = "neo4j"  password = "..." }
//	mdl   { alphabet_size = 26  feature_types = 7 }
//	log   { level = "info"  format = "text" }
//	data_dir = "~/.mggraph"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "mggraph.hcl"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

var ErrInvalid = errors.New("invalid configuration")

type Store struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
}

type Neo4j struct {
	URI      string `hcl:"uri,optional"`
	Database string `hcl:"database,optional"`
	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`
}

type MDL struct {
	AlphabetSize int `hcl:"alphabet_size,optional"`
	FeatureTypes int `hcl:"feature_types,optional"`
}

type Log struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Config is the resolved settings.
type Config struct {
	Store   Store
	Neo4j   Neo4j
	MDL     MDL
	Log     Log
	DataDir string
}

// file mirrors the HCL layout; every block is optional.
type file struct {
	Store   *Store `hcl:"store,block"`
	Neo4j   *Neo4j `hcl:"neo4j,block"`
	MDL     *MDL   `hcl:"mdl,block"`
	Log     *Log   `hcl:"log,block"`
	DataDir string `hcl:"data_dir,optional"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Store:   Store{Backend: BackendSQLite, Path: "mggraph.db"},
		Neo4j:   Neo4j{URI: "neo4j://localhost:7687", Database: "neo4j", Username: "neo4j"},
		MDL:     MDL{AlphabetSize: 26, FeatureTypes: 7},
		Log:     Log{Level: "info", Format: "text"},
		DataDir: ".",
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile; a
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Decode(path, src); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode overlays the settings in src onto cfg. name picks the syntax:
// ".json" is HCL's JSON form, anything else native HCL.
func (c *Config) Decode(name string, src []byte) error {
	if ext := filepath.Ext(name); ext != ".hcl" && ext != ".json" {
		name += ".hcl"
	}
	var f file
	if err := hclsimple.Decode(name, src, nil, &f); err != nil {
		return fmt.Errorf("decode config %s: %w", name, err)
	}
	if f.Store != nil {
		c.Store.Backend = pick(f.Store.Backend, c.Store.Backend)
		c.Store.Path = pick(f.Store.Path, c.Store.Path)
	}
	if f.Neo4j != nil {
		c.Neo4j.URI = pick(f.Neo4j.URI, c.Neo4j.URI)
		c.Neo4j.Database = pick(f.Neo4j.Database, c.Neo4j.Database)
		c.Neo4j.Username = pick(f.Neo4j.Username, c.Neo4j.Username)
		c.Neo4j.Password = pick(f.Neo4j.Password, c.Neo4j.Password)
	}
	if f.MDL != nil {
		if f.MDL.AlphabetSize != 0 {
			c.MDL.AlphabetSize = f.MDL.AlphabetSize
		}
		if f.MDL.FeatureTypes != 0 {
			c.MDL.FeatureTypes = f.MDL.FeatureTypes
		}
	}
	if f.Log != nil {
		c.Log.Level = pick(f.Log.Level, c.Log.Level)
		c.Log.Format = pick(f.Log.Format, c.Log.Format)
	}
	c.DataDir = pick(f.DataDir, c.DataDir)
	return nil
}

func pick(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Validate checks the backend name and MDL parameters.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendNeo4j:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.MDL.AlphabetSize < 0 || c.MDL.FeatureTypes < 0 {
		return fmt.Errorf("%w: mdl sizes must not be negative", ErrInvalid)
	}
	return nil
}

// StorePath resolves the SQLite path against DataDir. ":memory:" and
// absolute paths are returned unchanged.
func (c Config) StorePath() string {
	p := c.Store.Path
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ResolvedDataDir(), p)
}

// ResolvedDataDir expands a leading "~/".
func (c Config) ResolvedDataDir() string {
	d := c.DataDir
	if rest, ok := strings.CutPrefix(d, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return d
}
