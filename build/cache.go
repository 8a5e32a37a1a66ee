package build

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/mir"
)

// sourceDigest hashes a file's raw bytes the same way ai.Context hashes its
// canonical JSON (spec §6 "content-addressed"), so an unchanged source file
// always maps to the same .haira-cache/ast/<digest>.ast entry regardless of
// when or where it's rebuilt.
func sourceDigest(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// ASTCache persists parsed ast.Files keyed by their source file's content
// digest, letting a rebuild with no source changes skip re-parsing (spec
// §4.9, §6's `.haira-cache/ast/<file-sha>.ast`); resolution still runs.
// Entries are opaque gob blobs; the AST grammar isn't meant to be consumed
// outside this compiler, so gob's compactness wins over JSON's portability
// here the way it doesn't for the AI cache's .cir files (those are meant to
// be inspectable, per spec §4.4).
type ASTCache struct {
	dir string
}

func NewASTCache(cacheRoot string) (*ASTCache, error) {
	dir := filepath.Join(cacheRoot, "ast")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ASTCache{dir: dir}, nil
}

func (c *ASTCache) path(digest string) string {
	return filepath.Join(c.dir, digest+".ast")
}

// Get returns the cached parse of a file whose source digest is digest, if
// the cache entry is present and decodes cleanly. A corrupt or missing
// entry is treated as a cache miss, never an error — the driver always has
// a working fallback (re-parse the file).
func (c *ASTCache) Get(digest string) (*ast.File, bool) {
	f, err := os.Open(c.path(digest))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var file ast.File
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, false
	}
	return &file, true
}

// Put writes file's gob encoding to disk via create-temp-then-rename. The
// temp suffix is a uuid, as in ai.DiskCache.Put, so two
// goroutines racing to cache the same digest within one process (parallel
// parse tasks never do this, since each owns a distinct file, but a future
// caller might) never collide on the same temp path.
func (c *ASTCache) Put(digest string, file *ast.File) error {
	return writeAtomic(c.path(digest), func(w *os.File) error {
		return gob.NewEncoder(w).Encode(file)
	})
}

// MIRCache persists mir.Funcs as mir.Build produced them, before
// mir.Optimize, keyed by the driver's hirDigest, letting a cache hit skip
// MIR construction on rebuild; optimization still runs on every build
// (spec §6's `.haira-cache/mir/<func-sha>.mir`).
type MIRCache struct {
	dir string
}

func NewMIRCache(cacheRoot string) (*MIRCache, error) {
	dir := filepath.Join(cacheRoot, "mir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &MIRCache{dir: dir}, nil
}

func (c *MIRCache) path(digest string) string {
	return filepath.Join(c.dir, digest+".mir")
}

func (c *MIRCache) Get(digest string) (*mir.Func, bool) {
	f, err := os.Open(c.path(digest))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var fn mir.Func
	if err := gob.NewDecoder(f).Decode(&fn); err != nil {
		return nil, false
	}
	return &fn, true
}

func (c *MIRCache) Put(digest string, fn *mir.Func) error {
	return writeAtomic(c.path(digest), func(w *os.File) error {
		return gob.NewEncoder(w).Encode(fn)
	})
}

// writeAtomic runs encode against a uuid-suffixed temp file in dst's
// directory, then renames it over dst, so a reader never observes a
// partially-written cache entry (the same create-temp-then-rename shape,
// and the same uuid temp suffix, as ai.DiskCache.Put and ai.LockFile.Save).
func writeAtomic(dst string, encode func(*os.File) error) error {
	tmp := dst + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
