package log

import (
	"path/filepath"
	"runtime"
	"strconv"
)

const pkg = "github.com/CityOfZion/neo-ruby-sdk/log."

// Functions left out of at=file:line entries, so the reported caller
// is the code that logged rather than a logging helper.
var skipFunc = map[string]bool{
	pkg + "Printkv":            true,
	pkg + "Printf":             true,
	pkg + "Error":              true,
	pkg + "Fatalkv":            true,
	pkg + "RecoverAndLogError": true,
}

// SkipFunc removes the named function, given as import path and
// identifier separated by a dot, from at=file:line entries. It must
// not be called concurrently with logging.
func SkipFunc(name string) {
	skipFunc[name] = true
}

// caller returns file:line of the nearest function on the stack not
// in skipFunc, or "?:?".
func caller() string {
	pc := make([]uintptr, 16)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	for {
		f, more := frames.Next()
		if f.Function != "" && !skipFunc[f.Function] {
			return filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)
		}
		if !more {
			return "?:?"
		}
	}
}
