package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// osExit is indirected so tests can observe a "would have exited" without
// killing the test binary.
var osExit = os.Exit

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = successColorFG
)

var codeLabel = map[Code]string{
	CodeLexError:           "Lex",
	CodeParseError:         "Syntax",
	CodeNameError:          "Name",
	CodeAmbiguityError:     "Ambiguity",
	CodeRedefinitionError:  "Redefinition",
	CodeTypeError:          "Type",
	CodeCIRValidationError: "CIR Validation",
	CodeAIInterpretation:   "AI Interpretation",
	CodeAIOfflineMiss:      "AI Offline",
	CodeAIConfidenceTooLow: "AI Confidence",
	CodeCacheCorrupt:       "Cache",
	CodeCodeGenError:       "Codegen",
	CodeLinkError:          "Link",
	CodeIOError:            "I/O",
}

func displayDiagnostic(d *Diagnostic) {
	fmt.Print("\n\n-- ")

	label := codeLabel[d.Code]
	kindLen := len(label)
	if d.IsWarning {
		warnStyleBG.Print(label + " Warning")
		kindLen += 9
	} else {
		errorStyleBG.Print(label + " Error")
		kindLen += 7
	}
	fmt.Print(" ")

	fileName := d.Primary.File
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 || bannerLen <= 0 {
		bannerLen = 50
	}
	dashCount := bannerLen - len(fileName) - kindLen - 1
	if dashCount < 0 {
		dashCount = 0
	}
	fmt.Print(strings.Repeat("-", dashCount) + " ")
	infoColorFG.Println(fileName)

	fmt.Println(d.Message)

	if d.HasSpan && d.Primary.File != "" {
		displaySourceSnippet(d.Primary)
	}

	if d.Hint != "" {
		infoColorFG.Print("hint: ")
		fmt.Println(d.Hint)
	}
}

// displaySourceSnippet renders the source lines covered by span with
// caret-underlining, the way the teacher's displaySourceText does.
func displaySourceSnippet(span Span) {
	f, err := os.Open(span.File)
	if err != nil {
		return
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}
	if len(lines) == 0 {
		return
	}

	minIndent := -1
	for _, line := range lines {
		indent := 0
		for _, c := range line {
			if c == ' ' {
				indent++
			} else {
				break
			}
		}
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}

	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))
	lineNumFmt := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	fmt.Println()
	for i, line := range lines {
		fmt.Printf(lineNumFmt, i+span.StartLine+1)
		if minIndent <= len(line) {
			fmt.Println(line[minIndent:])
		} else {
			fmt.Println(line)
		}

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		var prefix, underline int
		if i == 0 {
			prefix = span.StartCol - minIndent
		}
		if i == len(lines)-1 {
			underline = span.EndCol - prefix - minIndent
		} else {
			underline = len(line) - prefix - minIndent
		}
		if prefix < 0 {
			prefix = 0
		}
		if underline < 0 {
			underline = 0
		}

		fmt.Print(strings.Repeat(" ", prefix))
		errorColorFG.Println(strings.Repeat("^", underline))
	}
	fmt.Println()
}

// Info prints an informational notice that does not affect the error or
// warning counts — the accept-with-notice tier spec §4.4 specifies for AI
// confidence between 0.70 and 0.90.
func Info(msg string, args ...interface{}) {
	r := current()
	if r.logLevel < LogLevelWarn {
		return
	}
	infoColorFG.Print("info: ")
	fmt.Println(fmt.Sprintf(msg, args...))
}

func displayFatal(msg string, args ...interface{}) {
	fmt.Print("\n\n")
	errorStyleBG.Print("Fatal Error ")
	errorColorFG.Println(fmt.Sprintf(msg, args...))
}

func displayICE(msg string, args ...interface{}) {
	fmt.Print("\n\n")
	errorStyleBG.Print("Internal Compiler Error ")
	errorColorFG.Println(fmt.Sprintf(msg, args...))
	fmt.Println("This is a bug in the compiler; please file an issue.")
}

// --- phase spinners -----------------------------------------------------

var (
	phaseSpinner   *pterm.SpinnerPrinter
	currentPhase   string
	phaseStartTime time.Time
)

const maxPhaseLength = len("Materializing")

// BeginPhase announces the start of a compilation phase (spec §2 components
// A-I). Only rendered at LogLevelVerbose.
func BeginPhase(phase string) {
	r := current()
	if r.logLevel != LogLevelVerbose {
		return
	}

	currentPhase = phase
	pad := maxPhaseLength - len(phase) + 2
	if pad < 0 {
		pad = 0
	}
	text := phase + "..." + strings.Repeat(" ", pad)

	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(infoColorFG))
	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix:       pterm.Prefix{Style: successStyleBG, Text: "Done"},
	}
	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix:       pterm.Prefix{Style: errorStyleBG, Text: "Fail"},
	}
	phaseSpinner.Start(text)
	phaseStartTime = time.Now()
}

// EndPhase closes out the spinner opened by BeginPhase.
func EndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}
	pad := maxPhaseLength - len(currentPhase) + 2
	if pad < 0 {
		pad = 0
	}
	label := currentPhase + strings.Repeat(" ", pad)
	if success {
		phaseSpinner.Success(label, fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()))
	} else {
		phaseSpinner.Fail(label)
	}
	phaseSpinner = nil
}

// CompileHeader prints the banner shown before compilation starts.
func CompileHeader(version, target string, cacheHit bool) {
	r := current()
	if r.logLevel != LogLevelVerbose {
		return
	}
	fmt.Print("haira ")
	infoColorFG.Print("v" + version)
	fmt.Print(" -- target: ")
	infoColorFG.Println(target)
	if cacheHit {
		fmt.Println("compiling using cache")
	}
}

// CompileFooter prints the closing summary line for a build.
func CompileFooter() {
	r := current()
	if r.logLevel != LogLevelVerbose {
		return
	}
	errCount, warnCount := Counts()

	fmt.Print("\n")
	if errCount == 0 {
		successColorFG.Print("All done! ")
	} else {
		errorColorFG.Print("Oh no! ")
	}
	fmt.Print("(")

	printCount(errCount, "error", "errors", errorColorFG)
	fmt.Print(", ")
	printCount(warnCount, "warning", "warnings", warnColorFG)
	fmt.Println(")")
}

func printCount(n int, singular, plural string, color pterm.Color) {
	if n == 0 {
		successColorFG.Print(0)
	} else {
		color.Print(n)
	}
	if n == 1 {
		fmt.Print(" " + singular)
	} else {
		fmt.Print(" " + plural)
	}
}
