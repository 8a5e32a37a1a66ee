package report

// PanicError is the type compiler internals should panic with when they want
// a diagnostic carried out of deeply nested recursive-descent or tree-walk
// code without every intermediate caller threading an error return. It is
// always paired with a deferred call to CatchErrors at a phase boundary
// (file, function, or CIR operation), mirroring the teacher's
// LocalCompileError / CatchErrors pattern.
type PanicError struct {
	Diagnostic *Diagnostic
}

func (pe *PanicError) Error() string {
	return pe.Diagnostic.Error()
}

// Raise panics with a diagnostic-carrying error. Callers recover it with
// CatchErrors.
func Raise(d *Diagnostic) {
	panic(&PanicError{Diagnostic: d})
}

// CatchErrors recovers a panic thrown by Raise (or any other error/value)
// and reports it instead of letting it propagate past the phase boundary.
// It must always be deferred, never called directly.
func CatchErrors() {
	if x := recover(); x != nil {
		switch v := x.(type) {
		case *PanicError:
			Report(v.Diagnostic)
		case error:
			Report(IOError("%s", v.Error()))
		default:
			ICE("%v", v)
		}
	}
}
