package build

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/mrzdevcore/haira/ai"
	"github.com/mrzdevcore/haira/common"
)

// tomlProjectFile is the haira.toml shape (SPEC_FULL.md §10), mirroring
// ai.lockFile's wrapper-struct pattern: an exported root whose fields map
// 1:1 onto TOML tables, decoded with toml.Unmarshal.
type tomlProjectFile struct {
	ModuleName string      `toml:"module_name"`
	AI         tomlAI      `toml:"ai"`
	CacheDir   string      `toml:"cache_dir"`
	LockMode   string      `toml:"lock_mode"`
}

type tomlAI struct {
	DefaultModel    string `toml:"default_model"`
	DefaultEndpoint string `toml:"default_endpoint"`
}

// Config is the fully-resolved configuration for one build, after applying
// spec.md §6's precedence order: CLI flags > haira.toml > environment
// variables > built-in defaults.
type Config struct {
	ModuleName string
	AIModel    string
	AIEndpoint string
	CacheDir   string
	LockMode   ai.LockMode
}

// defaultAIModel and defaultAIEndpoint are the built-in defaults used when
// none of CLI flags, haira.toml, or environment variables specify a value.
const (
	defaultAIModel    = "claude-sonnet-4-5"
	defaultAIEndpoint = ""
)

// CLIOverrides carries whichever flags the user actually passed to `build`/
// `check`/`run`/`test`; zero values mean "not specified", letting
// LoadConfig fall through to the next-lower precedence tier.
type CLIOverrides struct {
	AIModel    string
	AIEndpoint string
	CacheDir   string
	Offline    bool
	VerifyAI   bool
}

// LoadConfig reads haira.toml from projectDir (a missing file is not an
// error — every field falls back through env vars to built-in defaults,
// the same way LoadLockFile treats a missing haira.lock as an empty one)
// and resolves it against env vars and cli, in spec §6's precedence order.
func LoadConfig(projectDir string, cli CLIOverrides) (*Config, error) {
	var raw tomlProjectFile
	path := filepath.Join(projectDir, common.ModuleFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &Config{
		ModuleName: raw.ModuleName,
		AIModel:    pick(cli.AIModel, raw.AI.DefaultModel, os.Getenv("HAIRA_AI_MODEL"), defaultAIModel),
		AIEndpoint: pick(cli.AIEndpoint, raw.AI.DefaultEndpoint, os.Getenv("HAIRA_AI_ENDPOINT"), defaultAIEndpoint),
		CacheDir:   pick(cli.CacheDir, raw.CacheDir, os.Getenv("HAIRA_CACHE_DIR"), common.CacheDirName),
		LockMode:   resolveLockMode(cli, raw.LockMode),
	}
	return cfg, nil
}

// pick returns the first non-empty value in precedence order (highest
// precedence first), falling through to fallback if every tier is empty.
func pick(tiers ...string) string {
	for _, t := range tiers {
		if t != "" {
			return t
		}
	}
	return ""
}

func resolveLockMode(cli CLIOverrides, fileMode string) ai.LockMode {
	switch {
	case cli.Offline:
		return ai.LockModeOffline
	case cli.VerifyAI:
		return ai.LockModeVerifyAI
	case fileMode != "":
		return ai.LockMode(fileMode)
	default:
		return ai.LockModeOnline
	}
}
