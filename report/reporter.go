package report

import "sync"

// Enumeration of the different possible log levels (spec §6 --loglevel).
const (
	LogLevelSilent = iota
	LogLevelError
	LogLevelWarn
	LogLevelVerbose
)

// Reporter collects and renders diagnostics for one compilation. It respects
// a log level and is safe to call concurrently from the parallel file tasks
// the build driver spawns (spec §5).
type Reporter struct {
	m        sync.Mutex
	logLevel int

	errorCount   int
	warningCount int

	// All diagnostics seen this compilation, retained so that a phase can
	// finish reporting every independent failure before the driver halts at
	// the phase boundary (spec §7 propagation policy).
	diagnostics []*Diagnostic
}

var rep *Reporter

// InitReporter installs the global reporter. Re-initializing resets all
// counters; this is used between independent `build`/`check`/`test` runs in
// the same process (e.g. in tests).
func InitReporter(logLevel int) {
	rep = &Reporter{logLevel: logLevel}
}

func current() *Reporter {
	if rep == nil {
		InitReporter(LogLevelVerbose)
	}
	return rep
}

// Report records and, if the log level permits, displays a diagnostic. It
// returns false for errors so call sites can early-return without a second
// branch: `if !report.Report(d) { return }`.
func Report(d *Diagnostic) bool {
	r := current()
	r.m.Lock()
	defer r.m.Unlock()

	r.diagnostics = append(r.diagnostics, d)

	if d.IsWarning {
		r.warningCount++
		if r.logLevel >= LogLevelWarn {
			displayDiagnostic(d)
		}
		return true
	}

	r.errorCount++
	if r.logLevel > LogLevelSilent {
		displayDiagnostic(d)
	}
	return false
}

// Warn records d as a warning regardless of its IsWarning field.
func Warn(d *Diagnostic) {
	d.IsWarning = true
	Report(d)
}

// ShouldProceed reports whether no errors have been recorded since the
// reporter was (re-)initialized.
func ShouldProceed() bool {
	r := current()
	r.m.Lock()
	defer r.m.Unlock()
	return r.errorCount == 0
}

// AnyErrors is an alias for !ShouldProceed kept for call-site clarity at the
// very end of a build.
func AnyErrors() bool {
	return !ShouldProceed()
}

// Counts returns the total error and warning counts recorded so far.
func Counts() (errors, warnings int) {
	r := current()
	r.m.Lock()
	defer r.m.Unlock()
	return r.errorCount, r.warningCount
}

// Diagnostics returns a copy of every diagnostic recorded so far.
func Diagnostics() []*Diagnostic {
	r := current()
	r.m.Lock()
	defer r.m.Unlock()
	out := make([]*Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Fatal reports a fatal, unrecoverable error (e.g. a missing cache directory,
// an AI-offline miss) and terminates the process with the given exit code.
// It is always displayed regardless of log level.
func Fatal(exitCode int, msg string, args ...interface{}) {
	displayFatal(msg, args...)
	osExit(exitCode)
}

// ICE reports an internal compiler error: a condition that should never
// occur. Always displayed; always fatal.
func ICE(msg string, args ...interface{}) {
	displayICE(msg, args...)
	osExit(2)
}
