package recording

// Result is how a session ends: either a finished file or a recorder error.
type Result struct {
	Session string // consent token id of the session that ended
	Path    string
	Err     *Error
}

func Completed(path string) Result {
	return Result{Path: path}
}

func Failed(err *Error) Result {
	return Result{Err: err}
}

// OK reports whether the session produced a file.
func (r Result) OK() bool {
	return r.Err == nil
}
