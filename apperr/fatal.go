package apperr

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Fatal prints err together with its stack trace and terminates the process
// with exit code 1.
func Fatal(err error) {
	fmt.Fprintf(stderr, "FATAL: %+v\n", err)
	exit(1)
}

// Assert terminates the process when cond is false. The report contains the
// failed expression, the caller location, msg and a stack trace.
func Assert(cond bool, expr string, msg string) {
	if cond {
		return
	}

	_, file, line, _ := runtime.Caller(1)
	err := errors.AssertionFailedWithDepthf(1, "%s", msg)

	fmt.Fprintf(stderr, "[ASSERTION] [EXPR]: %s\n[FILE]: %s:%d\n[MSG]: %s\n", expr, file, line, msg)
	fmt.Fprintf(stderr, "[TRACE]:\n%+v\n", err)
	exit(1)
}

// IsFatal reports whether err or one of its causes belongs to the fatal tier:
// assertion failures raised by the rendering code for conditions it cannot
// recover from.
func IsFatal(err error) bool {
	return errors.HasAssertionFailure(err)
}

// Unrecoverable returns a fatal tier error. Callers propagate it up to the
// render loop which hands it to Fatal.
func Unrecoverable(format string, args ...any) error {
	return errors.AssertionFailedWithDepthf(1, format, args...)
}
