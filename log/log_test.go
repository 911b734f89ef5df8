// log/log_test.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func records(t *testing.T, b []byte) []map[string]any {
	t.Helper()
	var recs []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		var r map[string]any
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("%q: %v", sc.Text(), err)
		}
		recs = append(recs, r)
	}
	return recs
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		level string
		msgs  []string
	}{
		{"debug", []string{"d", "df 1", "i", "if 2", "w", "wf 3", "e", "ef 4"}},
		{"info", []string{"i", "if 2", "w", "wf 3", "e", "ef 4"}},
		{"warn", []string{"w", "wf 3", "e", "ef 4"}},
		{"error", []string{"e", "ef 4"}},
	} {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			lg := NewWithWriter(tc.level, &buf)
			lg.Debug("d")
			lg.Debugf("df %d", 1)
			lg.Info("i")
			lg.Infof("if %d", 2)
			lg.Warn("w")
			lg.Warnf("wf %d", 3)
			lg.Error("e")
			lg.Errorf("ef %d", 4)

			recs := records(t, buf.Bytes())
			if len(recs) != len(tc.msgs) {
				t.Fatalf("got %d records, expected %d: %s", len(recs), len(tc.msgs), buf.String())
			}
			for i, r := range recs {
				if r["msg"] != tc.msgs[i] {
					t.Errorf("record %d: msg %v, expected %q", i, r["msg"], tc.msgs[i])
				}
				if _, ok := r["callstack"]; !ok {
					t.Errorf("record %d: no callstack", i)
				}
			}
		})
	}
}

func TestCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("info", &buf)
	lg.Info("here")

	recs := records(t, buf.Bytes())
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	frames, ok := recs[0]["callstack"].([]any)
	if !ok || len(frames) == 0 {
		t.Fatalf("callstack %v", recs[0]["callstack"])
	}
	top, _ := frames[0].(map[string]any)
	if top["file"] != "log_test.go" || !strings.HasSuffix(top["function"].(string), "TestCallstack") {
		t.Errorf("top frame %v is not the caller", top)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("info", &buf).With("aircraft", "c172")
	lg.Info("polling")

	recs := records(t, buf.Bytes())
	if len(recs) != 1 || recs[0]["aircraft"] != "c172" {
		t.Errorf("got %v", recs)
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	lg.Debug("d")
	lg.Debugf("d")
	lg.Info("i")
	lg.Infof("i")
	if lg.With("a", 1) != nil {
		t.Errorf("With on nil logger returned non-nil")
	}
}

func TestCatchAndReportPanic(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("info", &buf)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		func() {
			defer lg.CatchAndReportPanic("listener panicked", "field", "COM1Frequency")
			panic("boom")
		}()
	}()
	if recovered != nil {
		t.Errorf("panic escaped: %v", recovered)
	}

	recs := records(t, buf.Bytes())
	if len(recs) != 1 {
		t.Fatalf("got %d records: %s", len(recs), buf.String())
	}
	if recs[0]["msg"] != "listener panicked" || recs[0]["panic"] != "boom" || recs[0]["field"] != "COM1Frequency" {
		t.Errorf("record %v", recs[0])
	}
	if s, _ := recs[0]["stack"].(string); !strings.Contains(s, "TestCatchAndReportPanic") {
		t.Errorf("no stack in %v", recs[0])
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	lg := New("info", dir)
	lg.Info("hello")

	if lg.LogFile != filepath.Join(dir, "radiopanel.slog") || lg.LogDir != dir {
		t.Errorf("log file %q in %q", lg.LogFile, lg.LogDir)
	}
	b, err := os.ReadFile(lg.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"msg":"System information"`)) || !bytes.Contains(b, []byte(`"msg":"hello"`)) {
		t.Errorf("unexpected log contents %s", b)
	}
}

// stackOf stands in for a Logger method: Callstack skips it.
func stackOf(fr []StackFrame) []StackFrame {
	return Callstack(fr)
}

func TestCallstackFrames(t *testing.T) {
	buf := make([]StackFrame, 0, maxStackFrames)
	fr := stackOf(buf)
	if len(fr) == 0 || len(fr) > maxStackFrames {
		t.Fatalf("got %d frames", len(fr))
	}
	if &fr[0] != &buf[:1][0] {
		t.Errorf("frames not stored in the provided slice")
	}
	if fr[0].Function != "log.TestCallstackFrames" || fr[0].File != "log_test.go" {
		t.Errorf("top frame %s", fr[0])
	}
	if s := fr[0].String(); !strings.HasPrefix(s, "log_test.go:") || !strings.HasSuffix(s, " log.TestCallstackFrames") {
		t.Errorf("String() = %q", s)
	}
}
