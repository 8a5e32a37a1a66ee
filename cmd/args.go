package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mrzdevcore/haira/build"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

const usage = `Usage: haira <command> [flags|options] [path]

Commands:
----------
build [FILE|DIR]   Compile a project (or single file) to a native executable.
run [FILE]         Build then execute the resulting binary.
check [FILE|DIR]   Run every phase through type checking; no MIR, codegen or link.
inspect NAME       Print the cached CIR for an AI-synthesized symbol.
test [DIR]         Build and run every *_test.haira file under DIR.

Flags:
------
-h, --help        Displays usage information (ie. this text).
-v, --version     Displays the current compiler version.
-d, --debug       Whether the compiler should emit debug information.

Options (build, run, check, test):
-----------------------------------
-o,  --outpath      Sets the path to write output to. Defaults to "out" (or
                    "out.exe" on Windows) in the project root.
-ll, --loglevel     One of "silent", "error", "warn", "verbose" (default).
--offline           Forbid live AI calls; a cache miss is a fatal AIOfflineMiss.
--refresh-ai        Bypass the AST/MIR caches and re-derive them; AI results
                    are still read from the AI cache.
--verify-ai         Re-call the model for every AI-backed symbol and fail if
                    the result's bytes differ from the locked digest.
--ai-model ID       Overrides haira.toml's ai.default_model / $HAIRA_AI_MODEL.
--ai-endpoint URL   Overrides haira.toml's ai.default_endpoint / $HAIRA_AI_ENDPOINT.
`

// Exit codes, fixed by spec §6.
const (
	ExitOK            = 0
	ExitCompileError  = 1
	ExitIOError       = 2
	ExitAIOfflineMiss = 3
)

func printUsage(exitCode int) int {
	fmt.Print(usage)
	return exitCode
}

// argumentError prints a usage-level error and returns the exit code the
// caller should use; it never itself terminates the process, so Main stays
// the sole os.Exit call site.
func argumentError(message string, args ...interface{}) int {
	fmt.Print("argument error: ", fmt.Sprintf(message, args...), "\n\n")
	printUsage(ExitCompileError)
	return ExitCompileError
}

// invocation holds everything parsed off the command line for one
// `haira <command> ...` run, mirroring the teacher's flat Compiler struct
// (cmd/driver.go) but generalized across haira's five subcommands instead
// of one.
type invocation struct {
	command    string
	rootPath   string
	targetName string // `inspect NAME`
	outputPath string
	debug      bool
	refreshAI  bool
	logLevel   int
	cli        build.CLIOverrides
}

// argParser mirrors the teacher's own hand-rolled nextArg/useArg split
// (cmd/args.go): a cursor over os.Args plus a closed set of option names
// that consume the following token as a value rather than standing alone
// as a flag.
type argParser struct {
	args []string
	ndx  int
}

var valueOptions = map[string]struct{}{
	"o": {}, "-outpath": {},
	"ll": {}, "-loglevel": {},
	"-ai-model":    {},
	"-ai-endpoint": {},
}

func (ap *argParser) nextArg() (string, string, bool) {
	if ap.ndx >= len(ap.args) {
		return "", "", false
	}
	arg := ap.args[ap.ndx]
	ap.ndx++

	if strings.HasPrefix(arg, "-") {
		name := arg[1:]
		if _, ok := valueOptions[name]; ok {
			if ap.ndx < len(ap.args) && !strings.HasPrefix(ap.args[ap.ndx], "-") {
				value := ap.args[ap.ndx]
				ap.ndx++
				return name, value, true
			}
			return name, "", true
		}
		return name, "", true
	}
	return "", arg, true
}

// parseArgs parses os.Args[1:] into an invocation. It never exits the
// process directly; ok is false on any argument error, and the caller
// (Main) is responsible for surfacing the exit code printUsage/
// argumentError already rendered to stdout.
func parseArgs(args []string) (*invocation, int, bool) {
	if len(args) == 0 {
		return nil, printUsage(ExitCompileError), false
	}

	inv := &invocation{logLevel: report.LogLevelVerbose}

	command := args[0]
	switch command {
	case "build", "run", "check", "inspect", "test":
		inv.command = command
	case "-h", "--help", "help":
		return nil, printUsage(ExitOK), false
	case "-v", "--version", "version":
		fmt.Println("haira " + common.Version)
		return nil, ExitOK, false
	default:
		return nil, argumentError("unknown command: %s", command), false
	}

	ap := &argParser{args: args[1:]}
	for {
		name, value, ok := ap.nextArg()
		if !ok {
			break
		}
		if code, exit := inv.apply(name, value); exit {
			return nil, code, false
		}
	}

	if inv.command == "inspect" {
		if inv.targetName == "" {
			return nil, argumentError("inspect requires a symbol NAME"), false
		}
		return inv, ExitOK, true
	}

	if inv.rootPath == "" {
		inv.rootPath = "."
	}
	absPath, err := filepath.Abs(inv.rootPath)
	if err != nil {
		return nil, argumentError("invalid path: %s", inv.rootPath), false
	}
	inv.rootPath = absPath

	if inv.outputPath == "" {
		inv.outputPath = filepath.Join(inv.rootPath, "out")
		if runtime.GOOS == "windows" {
			inv.outputPath += ".exe"
		}
	}

	return inv, ExitOK, true
}

// apply applies a single parsed (name, value) pair to inv. The bool return
// is true only when parsing must stop immediately — a terminal flag
// (help/version) or an argument error — in which case code is the process
// exit code the caller should surface.
func (inv *invocation) apply(name, value string) (int, bool) {
	switch name {
	case "h", "-help":
		return printUsage(ExitOK), true
	case "v", "-version":
		fmt.Println("haira " + common.Version)
		return ExitOK, true
	case "d", "-debug":
		inv.debug = true
	case "ll", "-loglevel":
		switch value {
		case "silent":
			inv.logLevel = report.LogLevelSilent
		case "error":
			inv.logLevel = report.LogLevelError
		case "warn":
			inv.logLevel = report.LogLevelWarn
		case "verbose":
			inv.logLevel = report.LogLevelVerbose
		default:
			return argumentError("invalid log level: %s", value), true
		}
	case "o", "-outpath":
		inv.outputPath = value
	case "-offline":
		inv.cli.Offline = true
	case "-refresh-ai":
		inv.refreshAI = true
	case "-verify-ai":
		inv.cli.VerifyAI = true
	case "-ai-model":
		inv.cli.AIModel = value
	case "-ai-endpoint":
		inv.cli.AIEndpoint = value
	case "":
		if inv.command == "inspect" {
			if inv.targetName != "" {
				return argumentError("inspect target specified multiple times"), true
			}
			inv.targetName = value
		} else {
			if inv.rootPath != "" {
				return argumentError("root path specified multiple times"), true
			}
			inv.rootPath = value
		}
	default:
		return argumentError("unknown flag: -%s", name), true
	}
	return ExitOK, false
}
