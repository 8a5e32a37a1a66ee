package ai

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

// fakeClient returns the same canned response (or a queue of responses) for
// every call, letting tests drive the two-strike retry path deterministically
// instead of hitting a live model — the substitution spec §4.4 and §8 call
// for via the Client interface.
type fakeClient struct {
	responses []string
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt string, contextJSON []byte) (string, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i], nil
}

func newTestEngine(t *testing.T, client Client, mode LockMode) *Engine {
	dir := t.TempDir()
	disk, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("new disk cache: %v", err)
	}
	lock, err := LoadLockFile(filepath.Join(dir, "haira.lock"), common.CIRVersion)
	if err != nil {
		t.Fatalf("load lock file: %v", err)
	}
	return NewEngine(client, disk, lock, mode)
}

func mustJSON(t *testing.T, fn cir.Function) string {
	b, err := json.Marshal(fn)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return string(b)
}

func TestEngine_AcceptsHighConfidenceFunction(t *testing.T) {
	fn := cir.Function{
		Name:       "double",
		ParamNames: []string{"x"},
		Params:     []cir.Type{{Kind: "int"}},
		Return:     cir.Type{Kind: "int"},
		Body: []cir.Op{
			{Result: "two", Kind: cir.OpLiteral, LitValue: 2, LitType: &cir.Type{Kind: "int"}},
			{Result: "return", Kind: cir.OpBinaryOp, Operator: "*", Inputs: []string{"x", "two"}},
		},
		CIRVersion: common.CIRVersion,
		Confidence: 0.97,
	}
	client := &fakeClient{responses: []string{mustJSON(t, fn)}}
	e := newTestEngine(t, client, LockModeOnline)

	ctx := BuildContext("double", nil, []ParamInfo{{Name: "x", Type: "int"}}, "int", nil, ProjectSchema{}, "claude-test", common.CIRVersion)
	got, ok := e.Synthesize(context.Background(), ctx)
	if !ok {
		t.Fatalf("expected synthesis to succeed")
	}
	if got.Name != "double" {
		t.Fatalf("expected function name `double`, got %q", got.Name)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one live call, got %d", client.calls)
	}
}

func TestEngine_CachesAcrossCalls(t *testing.T) {
	fn := cir.Function{
		Name:       "double",
		ParamNames: []string{"x"},
		Params:     []cir.Type{{Kind: "int"}},
		Body: []cir.Op{
			{Result: "two", Kind: cir.OpLiteral, LitValue: 2, LitType: &cir.Type{Kind: "int"}},
			{Result: "return", Kind: cir.OpBinaryOp, Operator: "*", Inputs: []string{"x", "two"}},
		},
		CIRVersion: common.CIRVersion,
		Confidence: 0.95,
	}
	client := &fakeClient{responses: []string{mustJSON(t, fn)}}
	e := newTestEngine(t, client, LockModeOnline)
	ctx := BuildContext("double", nil, []ParamInfo{{Name: "x", Type: "int"}}, "int", nil, ProjectSchema{}, "claude-test", common.CIRVersion)

	if _, ok := e.Synthesize(context.Background(), ctx); !ok {
		t.Fatalf("first synthesis should succeed")
	}
	if _, ok := e.Synthesize(context.Background(), ctx); !ok {
		t.Fatalf("second synthesis should succeed")
	}
	if client.calls != 1 {
		t.Fatalf("expected the second call to hit the in-memory cache, got %d live calls", client.calls)
	}
}

func TestEngine_TwoStrikeRetryThenFail(t *testing.T) {
	badResponse := `{"function_name":"broken","body":[{"result":"return","kind":"BinaryOp","operator":"+","inputs":["x","ghost"]}]}`
	client := &fakeClient{responses: []string{badResponse, badResponse}}
	e := newTestEngine(t, client, LockModeOnline)
	ctx := BuildContext("broken", nil, []ParamInfo{{Name: "x", Type: "int"}}, "int", nil, ProjectSchema{}, "claude-test", common.CIRVersion)

	if _, ok := e.Synthesize(context.Background(), ctx); ok {
		t.Fatalf("expected synthesis to fail after two validation failures")
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly two live calls (two-strike policy), got %d", client.calls)
	}
}

func TestEngine_LowConfidenceFailsCompilation(t *testing.T) {
	fn := cir.Function{
		Name: "guess",
		Body: []cir.Op{
			{Result: "return", Kind: cir.OpLiteral, LitValue: 0, LitType: &cir.Type{Kind: "int"}},
		},
		CIRVersion: common.CIRVersion,
		Confidence: 0.2,
	}
	client := &fakeClient{responses: []string{mustJSON(t, fn)}}
	e := newTestEngine(t, client, LockModeOnline)
	ctx := BuildContext("guess", nil, nil, "int", nil, ProjectSchema{}, "claude-test", common.CIRVersion)

	if _, ok := e.Synthesize(context.Background(), ctx); ok {
		t.Fatalf("expected synthesis with confidence 0.2 to fail compilation")
	}
}

func TestEngine_OfflineModeMissIsFatalMiss(t *testing.T) {
	client := &fakeClient{responses: []string{"unused"}}
	e := newTestEngine(t, client, LockModeOffline)
	ctx := BuildContext("never_cached", nil, nil, "int", nil, ProjectSchema{}, "claude-test", common.CIRVersion)

	if _, ok := e.Synthesize(context.Background(), ctx); ok {
		t.Fatalf("expected an offline cache miss to fail")
	}
	if client.calls != 0 {
		t.Fatalf("offline mode must never issue a live call, got %d", client.calls)
	}
}
