package errors

import (
	"path/filepath"
	"runtime"
)

// defaultCallerSkip is the number of frames runtime.Callers should skip so
// the captured trace starts at the call site rather than inside the error
// constructor (New, Wrap, ...) or captureStack itself.
const defaultCallerSkip = 3

// StackFrame is one frame of a captured call stack.
type StackFrame struct {
	File     string
	Line     int
	Function string
}

// captureStack collects up to 5 frames starting skip frames up from the
// caller.
func captureStack(skip int) []StackFrame {
	const maxFrames = 5
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pc)

	if n == 0 {
		return nil
	}

	callersFrames := runtime.CallersFrames(pc[:n])

	frames := make([]StackFrame, 0, n)
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: frame.Function,
		})
		if !more {
			break
		}
	}

	return frames
}
