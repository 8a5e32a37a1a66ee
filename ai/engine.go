package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

// Confidence gating thresholds, fixed by spec §4.4: accept silently at or
// above High, accept with an info diagnostic at or above Mid, accept with a
// warning at or above Low, fail compilation below Low.
const (
	ConfidenceHigh = 0.90
	ConfidenceMid  = 0.70
	ConfidenceLow  = 0.50
)

// DefaultCallTimeout and DefaultCallBudget are spec §5's concurrency/
// resource defaults: a per-call network timeout and a per-build total
// number of live calls. WithBudget overrides them; no haira.toml field or
// CLI flag sets them.
const (
	DefaultCallTimeout = 30 * time.Second
	DefaultCallBudget  = 100
)

// Engine is the AI Intent Engine (component D): it owns the cache
// hierarchy, the lock file, and the single live Client, and exposes one
// entry point — Synthesize — that the resolver's fixed-point loop calls for
// every queued unresolved-call or explicit `ai` declaration.
type Engine struct {
	client Client
	disk   *DiskCache
	lock   *LockFile
	mode   LockMode

	callTimeout time.Duration
	callBudget  int

	mu        sync.Mutex
	mem       map[string]*cir.Function
	callCount int

	sf singleflight.Group
}

// NewEngine wires a Client to its cache and lock-file backing per spec §4.4.
func NewEngine(client Client, disk *DiskCache, lock *LockFile, mode LockMode) *Engine {
	return &Engine{
		client:      client,
		disk:        disk,
		lock:        lock,
		mode:        mode,
		callTimeout: DefaultCallTimeout,
		callBudget:  DefaultCallBudget,
		mem:         map[string]*cir.Function{},
	}
}

// CallCount reports how many live model calls this engine has made so far
// this build, for the driver's final Result summary and its own budget
// diagnostics.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// WithBudget overrides the per-build live-call budget and per-call timeout
// (haira.toml / CLI flag overrides of the spec §5 defaults).
func (e *Engine) WithBudget(timeout time.Duration, budget int) *Engine {
	if timeout > 0 {
		e.callTimeout = timeout
	}
	if budget > 0 {
		e.callBudget = budget
	}
	return e
}

// Synthesize resolves c to a validated, confidence-gated CIR Function,
// walking the cache hierarchy in-memory map → .haira-cache/ai/<key>.cir →
// live call. There is no lock-file-assisted re-fetch layer: the lock file
// is never used to recover a missing disk entry. It
// returns ok=false (having already reported a diagnostic) whenever
// synthesis cannot produce an acceptable function for c.
func (e *Engine) Synthesize(ctx context.Context, c *Context) (*cir.Function, bool) {
	digest, err := c.Digest()
	if err != nil {
		report.Report(report.IOError("failed to digest AI context for `%s`: %v", c.FunctionName, err))
		return nil, false
	}

	if e.mode != LockModeVerifyAI {
		if fn, ok := e.lookupCached(digest); ok {
			return fn, true
		}
	}

	if e.mode == LockModeOffline {
		report.Report(report.AIOfflineMiss(c.FunctionName))
		return nil, false
	}

	result, err, _ := e.sf.Do(digest, func() (interface{}, error) {
		fn, ok := e.liveSynthesize(ctx, c, digest)
		if !ok {
			return nil, errFailedSynthesis
		}
		return fn, nil
	})
	if err != nil {
		return nil, false
	}
	return result.(*cir.Function), true
}

var errFailedSynthesis = errors.New("ai: synthesis failed (diagnostic already reported)")

// lookupCached walks the in-memory and disk cache layers only; it never
// reads the lock file. The lock file is read only by liveSynthesize, and
// only in verify-ai mode, to compare a fresh result against its locked
// digest.
func (e *Engine) lookupCached(digest string) (*cir.Function, bool) {
	e.mu.Lock()
	if fn, ok := e.mem[digest]; ok {
		e.mu.Unlock()
		return fn, true
	}
	e.mu.Unlock()

	fn, ok := e.disk.Get(digest)
	if !ok {
		return nil, false
	}
	if fn.CIRVersion != common.CIRVersion {
		report.Report(report.CacheCorruptError(digest, fmt.Sprintf(
			"cached cir_version %q does not match running compiler's %q; rerun with --refresh-ai", fn.CIRVersion, common.CIRVersion)))
		return nil, false
	}

	e.mu.Lock()
	e.mem[digest] = fn
	e.mu.Unlock()
	return fn, true
}

// liveSynthesize performs the two-strike call-and-validate loop and
// confidence gating, then commits an accepted result to every cache layer.
func (e *Engine) liveSynthesize(ctx context.Context, c *Context, digest string) (*cir.Function, bool) {
	e.mu.Lock()
	e.callCount++
	count := e.callCount
	e.mu.Unlock()
	if count > e.callBudget {
		report.Fatal(1, "AI call budget exceeded (%d calls) for function `%s`", e.callBudget, c.FunctionName)
		return nil, false
	}

	contextJSON, err := c.CanonicalJSON()
	if err != nil {
		report.Report(report.IOError("failed to serialize AI context for `%s`: %v", c.FunctionName, err))
		return nil, false
	}

	fn, ok := e.callAndValidate(ctx, c, contextJSON, "")
	if !ok {
		// Two-strike policy (spec §4.4): the first validation failure earns
		// exactly one retry with the validator's error appended.
		bad, _ := lastRejectedOp()
		fn, ok = e.callAndValidate(ctx, c, contextJSON, bad)
		if !ok {
			report.Report(report.AIInterpretationError(c.FunctionName, digest,
				"model response failed CIR validation twice"))
			return nil, false
		}
	}

	if e.mode == LockModeVerifyAI {
		if entry, found := e.lock.Lookup(digest); found {
			gotDigest, err := cir.Digest(fn)
			if err == nil && gotDigest != entry.Digest {
				report.Report(report.AIInterpretationError(c.FunctionName, digest,
					fmt.Sprintf("--verify-ai: re-synthesis produced different bytes than locked digest %s", entry.Digest)))
				return nil, false
			}
		}
	}

	if !e.gateConfidence(c.FunctionName, fn.Confidence) {
		return nil, false
	}

	e.commit(digest, fn, c.Model)
	return fn, true
}

// callAndValidate issues one live call (optionally with a retry hint
// appended to the context, its second-strike form) and validates the
// response against the CIR schema.
func (e *Engine) callAndValidate(ctx context.Context, c *Context, contextJSON []byte, retryHint string) (*cir.Function, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	payload := contextJSON
	if retryHint != "" {
		payload = append(append([]byte{}, contextJSON...),
			[]byte(fmt.Sprintf(`

The previous response was rejected: %s. Correct it and resubmit the complete function.`, retryHint))...)
	}

	raw, err := e.client.Complete(callCtx, SystemPromptV1, payload)
	if err != nil {
		report.Report(report.AIInterpretationError(c.FunctionName, "", err.Error()))
		return nil, false
	}

	var fn cir.Function
	if err := json.Unmarshal([]byte(raw), &fn); err != nil {
		report.Report(report.AIInterpretationError(c.FunctionName, "", "response was not valid CIR JSON: "+err.Error()))
		return nil, false
	}
	if fn.Name == "" {
		fn.Name = c.FunctionName
	}

	if !cir.ValidateOrReport(&fn) {
		return nil, false
	}
	return &fn, true
}

// lastRejectedOp returns the message of the most recent CIRValidationError
// in report.Diagnostics(), which is the retry hint the second strike sends.
// It reads the reported diagnostic because Validate's return value is not
// threaded back out of ValidateOrReport.
func lastRejectedOp() (string, bool) {
	diags := report.Diagnostics()
	for i := len(diags) - 1; i >= 0; i-- {
		if diags[i].Code == report.CodeCIRValidationError {
			return diags[i].Message, true
		}
	}
	return "", false
}

// gateConfidence applies spec §4.4's fixed thresholds.
func (e *Engine) gateConfidence(name string, confidence float64) bool {
	switch {
	case confidence >= ConfidenceHigh:
		return true
	case confidence >= ConfidenceMid:
		report.Info("function `%s`: AI confidence %.2f accepted", name, confidence)
		return true
	case confidence >= ConfidenceLow:
		report.Warn(report.AIConfidenceTooLow(name, confidence).
			WithHint("review this function's behavior; the model was not highly confident"))
		return true
	default:
		report.Report(report.AIConfidenceTooLow(name, confidence))
		return false
	}
}

// commit writes fn to the in-memory and disk caches and records it in the
// lock file (spec §4.4: "every acceptance writes .haira-cache/ai/<key>.cir
// and updates haira.lock").
func (e *Engine) commit(digest string, fn *cir.Function, model string) {
	e.mu.Lock()
	e.mem[digest] = fn
	e.mu.Unlock()

	if err := e.disk.Put(digest, fn, model); err != nil {
		report.Report(report.IOError("failed to write AI cache entry %s: %v", digest, err))
	}

	fnDigest, err := cir.Digest(fn)
	if err != nil {
		report.Report(report.IOError("failed to digest accepted function `%s`: %v", fn.Name, err))
		return
	}
	e.lock.Record(digest, fnDigest, fn.Name, model, time.Now())
	if err := e.lock.Save(); err != nil {
		report.Report(report.IOError("failed to save haira.lock: %v", err))
	}
}
