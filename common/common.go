// Package common holds small constants and enumerations shared across every
// phase of the Haira pipeline, mirroring the teacher's common package.
package common

// Version is the current Haira compiler version, printed by --version and
// in the compile header banner.
const Version = "0.1.0"

// CIRVersion is the schema version emitted in every CIR file and cache entry
// (spec §6). Bumping it is a closed-set, language-version event (spec §9).
const CIRVersion = "1.0"

// ModuleFileName is the name of a Haira project's configuration file.
const ModuleFileName = "haira.toml"

// CacheDirName is the default name of the on-disk build cache (spec §6),
// overridable by HAIRA_CACHE_DIR.
const CacheDirName = ".haira-cache"

// LockFileName is the name of the reproducibility lock file (spec §6).
const LockFileName = "haira.lock"

// SourceFileExt is the file extension for Haira source files.
const SourceFileExt = ".haira"

// TestFileSuffix marks a file as a test file for the `test` driver command.
const TestFileSuffix = "_test.haira"

// Visibility enumerates the closed set of symbol visibilities (spec §3).
type Visibility int

const (
	VisibilityFilePrivate Visibility = iota
	VisibilityProject
	VisibilityPublic
)

func (v Visibility) String() string {
	switch v {
	case VisibilityFilePrivate:
		return "file-private"
	case VisibilityProject:
		return "project"
	default:
		return "public"
	}
}
