package ai

import (
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml"
)

// LockMode is the closed set of AI-call policies a build may run under
// (spec §4.4, §6 on-disk layout: haira.lock sections [version]/[ai_generated]).
type LockMode string

const (
	LockModeOnline   LockMode = "online"
	LockModeOffline  LockMode = "offline"
	LockModeVerifyAI LockMode = "verify-ai"
)

// lockFile is the TOML shape of haira.lock, mirroring the teacher's
// tomlModuleFile wrapper-struct pattern (mods/load.go) for its own config
// file: a root struct whose fields map 1:1 onto named TOML
// sections/tables, decoded with toml.Unmarshal and encoded with
// toml.Marshal.
type lockFile struct {
	Version      string                 `toml:"version"`
	AIGenerated  map[string]lockEntry   `toml:"ai_generated"`
}

// lockEntry records one accepted AI synthesis, keyed by its context digest,
// so a later `--verify-ai` run can detect whether re-calling the model for
// the same context now produces different bytes (spec §4.4).
type lockEntry struct {
	Name      string    `toml:"name"`
	Model     string    `toml:"model"`
	Digest    string    `toml:"digest"`
	CreatedAt time.Time `toml:"created_at"`
}

// LockFile is a loaded/mutable in-memory view of haira.lock.
type LockFile struct {
	path    string
	version string
	entries map[string]lockEntry
}

// LoadLockFile reads path if it exists, or returns an empty lock file
// otherwise — a missing haira.lock is not an error, it just means this is
// the project's first build.
func LoadLockFile(path string, cirVersion string) (*LockFile, error) {
	lf := &LockFile{path: path, version: cirVersion, entries: map[string]lockEntry{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return lf, nil
	}
	if err != nil {
		return nil, err
	}

	var raw lockFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	lf.version = raw.Version
	if raw.AIGenerated != nil {
		lf.entries = raw.AIGenerated
	}
	return lf, nil
}

// Lookup returns the locked entry for a context digest, if any.
func (lf *LockFile) Lookup(digest string) (lockEntry, bool) {
	e, ok := lf.entries[digest]
	return e, ok
}

// LockEntry is the exported, read-only view of one recorded acceptance, for
// inspection tooling (`haira inspect NAME`, spec §6) that has a function
// name but not its context digest.
type LockEntry struct {
	ContextDigest  string
	Name           string
	Model          string
	FunctionDigest string
	CreatedAt      time.Time
}

// FindByName linearly scans the lock file's entries for one matching name.
// haira.lock is keyed by context digest, not name, since two differently
// shaped contexts could coincidentally name the same function; a build
// this small never has enough entries for the scan to matter.
func (lf *LockFile) FindByName(name string) (LockEntry, bool) {
	for digest, e := range lf.entries {
		if e.Name == name {
			return LockEntry{ContextDigest: digest, Name: e.Name, Model: e.Model, FunctionDigest: e.Digest, CreatedAt: e.CreatedAt}, true
		}
	}
	return LockEntry{}, false
}

// Record stores an accepted synthesis's entry, keyed by the AI context's
// digest (the same key used for the disk cache filename), recording the
// digest of the accepted CIR function's own bytes so a later --verify-ai
// run can detect drift. Callers write through Save after every acceptance
// (spec §4.4: "every acceptance... updates haira.lock").
func (lf *LockFile) Record(contextDigest, fnDigest, name, model string, createdAt time.Time) {
	lf.entries[contextDigest] = lockEntry{Name: name, Model: model, Digest: fnDigest, CreatedAt: createdAt}
}

// Save writes the lock file back to disk as canonical-key-ordered TOML
// (SPEC_FULL.md §1 domain-stack entry for go-toml). Entries are copied
// into a fresh map in sorted key order and that map is encoded; a Go map
// keeps no order, so the key order in the written file is the order
// toml.Marshal gives map keys. The temp file's
// suffix is a uuid rather than a bare ".tmp", so two builds racing to save
// the same project's lock file (spec §5 never actually allows this today,
// since only one Engine writes it per build, but a future multi-project
// workspace build could) never collide on the same temp path.
func (lf *LockFile) Save() error {
	keys := make([]string, 0, len(lf.entries))
	for k := range lf.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make(map[string]lockEntry, len(keys))
	for _, k := range keys {
		ordered[k] = lf.entries[k]
	}

	raw := lockFile{Version: lf.version, AIGenerated: ordered}
	b, err := toml.Marshal(raw)
	if err != nil {
		return err
	}

	tmp := lf.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, lf.path)
}
