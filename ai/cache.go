package ai

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/report"
)

// indexEntry is one row of .haira-cache/ai/index.json (spec §6 on-disk
// layout), kept alongside the per-key .cir files so `inspect NAME` and
// cache-eviction tooling don't need to parse every CIR file just to list
// what's cached.
type indexEntry struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// DiskCache implements the on-disk layer of spec §4.4's cache hierarchy:
// .haira-cache/ai/<key>.cir holds the canonical CIR JSON, LF-terminated;
// .haira-cache/ai/index.json is the {digest: {name, model, created_at}} map
// spec §6 describes. Writes go through create-temp-then-rename, the
// advisory-lock strategy spec §5 calls for protecting concurrent cache
// writers without a real file lock.
type DiskCache struct {
	dir string

	mu    sync.Mutex
	index map[string]indexEntry
}

// NewDiskCache opens (creating if absent) the ai/ subdirectory of a build's
// cache root and loads its index, if any.
func NewDiskCache(cacheRoot string) (*DiskCache, error) {
	dir := filepath.Join(cacheRoot, "ai")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dc := &DiskCache{dir: dir, index: map[string]indexEntry{}}

	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err == nil {
		_ = json.Unmarshal(data, &dc.index) // a corrupt index is not fatal, just means a cold cache
	}
	return dc, nil
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+".cir")
}

// Get reads a cached CIR function, reporting CacheCorruptError (and
// treating the entry as absent) if the bytes on disk don't parse.
func (dc *DiskCache) Get(key string) (*cir.Function, bool) {
	data, err := os.ReadFile(dc.path(key))
	if err != nil {
		return nil, false
	}
	var fn cir.Function
	if err := json.Unmarshal(data, &fn); err != nil {
		report.Report(report.CacheCorruptError(key, err.Error()))
		return nil, false
	}
	return &fn, true
}

// Put writes fn's canonical JSON to disk via create-temp-then-rename and
// records it in the index, persisting the index afterward.
func (dc *DiskCache) Put(key string, fn *cir.Function, model string) error {
	raw, err := cir.CanonicalJSON(fn)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	tmp := dc.path(key) + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dc.path(key)); err != nil {
		return err
	}

	dc.mu.Lock()
	dc.index[key] = indexEntry{Name: fn.Name, Model: model, CreatedAt: time.Now()}
	idx := dc.index
	dc.mu.Unlock()
	return dc.saveIndex(idx)
}

func (dc *DiskCache) saveIndex(idx map[string]indexEntry) error {
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dc.dir, "index.json.tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dc.dir, "index.json"))
}
