package report

import "fmt"

// Code identifies a member of Haira's closed error taxonomy (spec §7).
type Code string

const (
	CodeLexError           Code = "LexError"
	CodeParseError         Code = "ParseError"
	CodeNameError          Code = "NameError"
	CodeAmbiguityError     Code = "AmbiguityError"
	CodeRedefinitionError  Code = "RedefinitionError"
	CodeTypeError          Code = "TypeError"
	CodeCIRValidationError Code = "CIRValidationError"
	CodeAIInterpretation   Code = "AIInterpretationError"
	CodeAIOfflineMiss      Code = "AIOfflineMiss"
	CodeAIConfidenceTooLow Code = "AIConfidenceTooLow"
	CodeCacheCorrupt       Code = "CacheCorruptError"
	CodeCodeGenError       Code = "CodeGenError"
	CodeLinkError          Code = "LinkError"
	CodeIOError            Code = "IOError"
)

// TypeErrorKind enumerates the closed set of TypeError sub-kinds (spec §4.2).
type TypeErrorKind string

const (
	TypeErrorArityMismatch TypeErrorKind = "ArityMismatch"
	TypeErrorUnboundField  TypeErrorKind = "UnboundField"
	TypeErrorCannotInfer   TypeErrorKind = "CannotInfer"
	TypeErrorMismatch      TypeErrorKind = "Mismatch"
)

// Diagnostic is a single user-visible compiler message: an error code, a
// message, a primary span, optional secondary spans, and an optional hint
// (spec §7). Every member of the closed taxonomy is reported through one.
type Diagnostic struct {
	Code      Code
	TypeKind  TypeErrorKind // only meaningful when Code == CodeTypeError
	Message   string
	Primary   Span
	HasSpan   bool
	Secondary []Span
	Hint      string
	IsWarning bool
}

func (d *Diagnostic) Error() string {
	if d.TypeKind != "" {
		return fmt.Sprintf("%s(%s): %s", d.Code, d.TypeKind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// WithHint attaches a hint to a diagnostic and returns it for chaining.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// WithSecondary appends a secondary span.
func (d *Diagnostic) WithSecondary(s Span) *Diagnostic {
	d.Secondary = append(d.Secondary, s)
	return d
}

func newErr(code Code, span Span, hasSpan bool, msg string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(msg, args...),
		Primary: span,
		HasSpan: hasSpan,
	}
}

func LexError(span Span, msg string, args ...interface{}) *Diagnostic {
	return newErr(CodeLexError, span, true, msg, args...)
}

func ParseError(span Span, msg string, args ...interface{}) *Diagnostic {
	return newErr(CodeParseError, span, true, msg, args...)
}

func NameError(span Span, msg string, args ...interface{}) *Diagnostic {
	return newErr(CodeNameError, span, true, msg, args...)
}

func AmbiguityError(span Span, msg string, args ...interface{}) *Diagnostic {
	return newErr(CodeAmbiguityError, span, true, msg, args...)
}

func RedefinitionError(span Span, name string) *Diagnostic {
	return newErr(CodeRedefinitionError, span, true, "symbol defined multiple times: `%s`", name)
}

func TypeError(kind TypeErrorKind, span Span, msg string, args ...interface{}) *Diagnostic {
	d := newErr(CodeTypeError, span, true, msg, args...)
	d.TypeKind = kind
	return d
}

func CIRValidationError(functionName string, firstRejectedOp string, msg string) *Diagnostic {
	return &Diagnostic{
		Code:    CodeCIRValidationError,
		Message: fmt.Sprintf("function `%s`: %s (first rejected op: %s)", functionName, msg, firstRejectedOp),
	}
}

func AIInterpretationError(functionName, contextDigest, msg string) *Diagnostic {
	return &Diagnostic{
		Code:    CodeAIInterpretation,
		Message: fmt.Sprintf("function `%s` (context %s): %s", functionName, contextDigest, msg),
	}
}

func AIOfflineMiss(functionName string) *Diagnostic {
	return &Diagnostic{
		Code:    CodeAIOfflineMiss,
		Message: fmt.Sprintf("no cached CIR for AI-backed function `%s` and build is offline", functionName),
	}
}

func AIConfidenceTooLow(functionName string, confidence float64) *Diagnostic {
	return &Diagnostic{
		Code:    CodeAIConfidenceTooLow,
		Message: fmt.Sprintf("function `%s`: confidence %.2f is below the acceptance threshold", functionName, confidence),
	}
}

func CacheCorruptError(key, msg string) *Diagnostic {
	return &Diagnostic{
		Code:    CodeCacheCorrupt,
		Message: fmt.Sprintf("cache entry %s: %s", key, msg),
	}
}

func CodeGenError(span Span, msg string, args ...interface{}) *Diagnostic {
	return newErr(CodeCodeGenError, span, false, msg, args...)
}

func LinkError(msg string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: CodeLinkError, Message: fmt.Sprintf(msg, args...)}
}

func IOError(msg string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: CodeIOError, Message: fmt.Sprintf(msg, args...)}
}
