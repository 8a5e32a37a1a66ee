// Package cmd is the top-level driver package for the Haira compiler: it
// owns command-line argument parsing and dispatches each subcommand
// (build/run/check/inspect/test) to the build package's Driver, the same
// separation of concerns the teacher's own cmd package draws between
// argument handling (cmd/args.go) and compiler orchestration
// (cmd/compiler.go, cmd/driver.go).
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/mrzdevcore/haira/build"
	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

// Main is the compiler's sole entry point, called from cmd/haira's main.go.
// It never calls os.Exit itself — RunCompiler's own teacher counterpart did,
// but keeping exit codes as return values here lets tests drive the whole
// CLI without killing the test binary.
func Main(args []string) int {
	inv, code, ok := parseArgs(args)
	if !ok {
		return code
	}

	report.InitReporter(inv.logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		if _, ok := <-sigCh; ok {
			cancel()
		}
	}()
	defer signal.Stop(sigCh)

	if inv.command == "inspect" {
		return runInspect(inv)
	}

	cfg, err := build.LoadConfig(inv.rootPath, inv.cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}

	d, err := build.New(cfg, build.Options{
		RootPath:     inv.rootPath,
		OutputPath:   inv.outputPath,
		CLIOverrides: inv.cli,
		RefreshAI:    inv.refreshAI,
		LogLevel:     inv.logLevel,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}

	switch inv.command {
	case "build":
		return runBuild(ctx, d)
	case "check":
		return runCheck(ctx, d)
	case "run":
		return runRun(ctx, d)
	case "test":
		return runTest(ctx, d)
	default:
		return argumentError("unknown command: %s", inv.command)
	}
}

func runBuild(ctx context.Context, d *build.Driver) int {
	report.CompileHeader(currentVersion(), hostTarget(), false)
	_, err := d.Build(ctx)
	report.CompileFooter()
	if err != nil {
		return exitCodeFor(err)
	}
	return ExitOK
}

func runCheck(ctx context.Context, d *build.Driver) int {
	report.CompileHeader(currentVersion(), hostTarget(), false)
	_, err := d.Check(ctx)
	report.CompileFooter()
	if err != nil {
		return exitCodeFor(err)
	}
	return ExitOK
}

func runRun(ctx context.Context, d *build.Driver) int {
	report.CompileHeader(currentVersion(), hostTarget(), false)
	_, exitCode, err := d.Run(ctx, nil)
	report.CompileFooter()
	if err != nil {
		return exitCodeFor(err)
	}
	return exitCode
}

func runTest(ctx context.Context, d *build.Driver) int {
	report.CompileHeader(currentVersion(), hostTarget(), false)
	results, err := d.Test(ctx)
	if err != nil {
		report.CompileFooter()
		return exitCodeFor(err)
	}

	failed := 0
	for _, r := range results {
		if r.Passed {
			fmt.Printf("PASS  %s\n", r.File)
		} else {
			failed++
			fmt.Printf("FAIL  %s (exit %d)\n", r.File, r.ExitCode)
		}
	}
	fmt.Printf("\n%d passed, %d failed\n", len(results)-failed, failed)
	report.CompileFooter()

	if failed > 0 {
		return ExitCompileError
	}
	return ExitOK
}

func runInspect(inv *invocation) int {
	report.InitReporter(inv.logLevel)

	rootPath := inv.rootPathOrCwd()
	cfg, err := build.LoadConfig(rootPath, build.CLIOverrides{Offline: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}

	d, err := build.New(cfg, build.Options{RootPath: rootPath})
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}

	res, err := d.Inspect(inv.targetName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}
	if !res.Found {
		fmt.Printf("`%s` has no recorded AI synthesis in haira.lock\n", inv.targetName)
		return ExitCompileError
	}

	fmt.Printf("%s (model: %s, synthesized: %s)\n", inv.targetName, res.Lock.Model, res.Lock.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if res.Function == nil {
		fmt.Println("(locked digest present but cache entry missing — run with --refresh-ai to re-synthesize)")
		return ExitCompileError
	}
	b, err := cir.CanonicalJSON(res.Function)
	if err != nil {
		fmt.Fprintln(os.Stderr, "haira:", err)
		return ExitIOError
	}
	fmt.Println(string(b))
	return ExitOK
}

// exitCodeFor maps a failed build's recorded diagnostics onto spec §6's
// closed exit-code set: an AIOfflineMiss always wins (exit 3, regardless of
// what else also failed), then an all-I/O failure set maps to exit 2, and
// everything else is the generic compile-error exit 1.
func exitCodeFor(err error) int {
	diags := report.Diagnostics()
	sawAIOfflineMiss := false
	sawIO, sawOther := false, false
	for _, d := range diags {
		if d.IsWarning {
			continue
		}
		if d.Code == report.CodeAIOfflineMiss {
			sawAIOfflineMiss = true
		}
		if d.Code == report.CodeIOError {
			sawIO = true
		} else {
			sawOther = true
		}
	}
	if sawAIOfflineMiss {
		return ExitAIOfflineMiss
	}
	if sawIO && !sawOther {
		return ExitIOError
	}
	return ExitCompileError
}

func (inv *invocation) rootPathOrCwd() string {
	if inv.rootPath != "" {
		return inv.rootPath
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func currentVersion() string {
	return common.Version
}

func hostTarget() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
