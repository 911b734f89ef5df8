// log/stack.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePath = "github.com/skyatc/radiopanel/"

// maxStackFrames bounds the callstack attribute; poll loop records rarely
// go deeper than the session and a listener.
const maxStackFrames = 12

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d %s", f.File, f.Line, f.Function)
}

// Callstack returns the stack of the code calling a Logger method,
// innermost first and ending at main.main or the goroutine's entry
// point. The frames are appended to fr[:0].
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [maxStackFrames]uintptr
	// Skip runtime.Callers, Callstack and the Logger method.
	n := runtime.Callers(3, pcs[:])

	fr = fr[:0]
	if n == 0 {
		return fr
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		fn := strings.TrimPrefix(strings.TrimPrefix(f.Function, modulePath), "main.")
		fr = append(fr, StackFrame{File: filepath.Base(f.File), Line: f.Line, Function: fn})
		if !more || f.Function == "main.main" {
			return fr
		}
	}
}
