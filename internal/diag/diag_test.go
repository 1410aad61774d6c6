package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icongen/pkg/contract"
)

// 日志轮转写入
func TestRotatingFile(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 30)
	_, err := w.Write([]byte("first line that is very long\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var hasCurrent, hasRotated bool
	for _, e := range ents {
		if e.Name() == currentLogName {
			hasCurrent = true
		} else if strings.HasPrefix(e.Name(), "icongen-") && strings.HasSuffix(e.Name(), ".log") {
			hasRotated = true
		}
	}
	assert.True(t, hasCurrent)
	assert.True(t, hasRotated)
}

// 首次写入即超过阈值不触发轮转
func TestRotatingFileOversizedFirstWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 4)
	_, err := w.Write([]byte("longer than four\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	ents, _ := os.ReadDir(dir)
	assert.Len(t, ents, 1)
}

// 关闭未打开的文件为 no-op
func TestRotatingFileCloseUnopened(t *testing.T) {
	assert.NoError(t, NewRotatingFile(t.TempDir(), 0).Close())
}

func readLogLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, currentLogName))
	require.NoError(t, err)
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if ln == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(ln), &m), ln)
		out = append(out, m)
	}
	return out
}

// 结构化字段与 start/finish 计时
func TestLoggerEvents(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerWith(LoggerOptions{CorrID: "run-1", Level: "info", Dir: dir})
	tm := l.StartWith("extractor", "extract", "Lucide.h")
	tm.Finish("extract", 7)
	l.ErrorWith("reader", string(CodeSourceUnavailable), "open failed", nil, "Missing.h", map[string]string{"marker": "ICON_X"})
	require.NoError(t, l.Close())

	lines := readLogLines(t, dir)
	require.Len(t, lines, 3)
	assert.Equal(t, "run-1", lines[0]["corr_id"])
	assert.Equal(t, "start", lines[0]["stage"])
	assert.Equal(t, "Lucide.h", lines[0]["file_id"])
	assert.Equal(t, "finish", lines[1]["stage"])
	assert.EqualValues(t, 7, lines[1]["count"])
	assert.Equal(t, "error", lines[2]["level"])
	assert.Equal(t, "source_unavailable", lines[2]["code"])
	kv, ok := lines[2]["kv"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ICON_X", kv["marker"])
}

// 级别过滤：debug 仅在 level=debug 时输出
func TestLoggerLevels(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerWith(LoggerOptions{Level: "warn", Dir: dir})
	l.DebugStart("x", "dbg", "", nil)
	l.Start("x", "info")
	l.Warn("extractor", string(CodeMalformedLine), "skip", "a.h", nil)
	require.NoError(t, l.Close())
	lines := readLogLines(t, dir)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])

	dir2 := t.TempDir()
	l2 := NewLoggerWith(LoggerOptions{Level: "debug", Dir: dir2})
	l2.DebugStart("x", "dbg", "", map[string]string{"k": "v"})
	require.NoError(t, l2.Close())
	assert.Len(t, readLogLines(t, dir2), 1)
}

// 控制台仅输出 warn 及以上
func TestLoggerConsoleFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWith(LoggerOptions{Dir: "-", Console: &buf})
	l.Start("pipeline", "quiet")
	assert.Empty(t, buf.String())
	l.Warn("extractor", "malformed_line", "skipped line", "a.h", nil)
	assert.Contains(t, buf.String(), "skipped line")
}

// nil Logger / Timer 安全
func TestLoggerNilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Start("a", "b").Finish("c", 1)
		l.Warn("a", "b", "c", "d", nil)
		l.Error("a", "b", "c", nil)
		_ = l.Close()
	})
	var tm *Timer
	assert.Zero(t, tm.Elapsed())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, CodeUnknown},
		{context.Canceled, CodeCancel},
		{fmt.Errorf("x: %w", context.DeadlineExceeded), CodeCancel},
		{fmt.Errorf("%w: a.h", contract.ErrSourceUnavailable), CodeSourceUnavailable},
		{fmt.Errorf("%w: line 3", contract.ErrMalformedLine), CodeMalformedLine},
		{fmt.Errorf("%w: out", contract.ErrDestinationUnwritable), CodeUnwritable},
		{contract.ErrInvalidInput, CodeInvariant},
		{contract.ErrPathInvalid, CodeInvariant},
		{fmt.Errorf("emitter: %w", contract.ErrBlockInvalid), CodeInvariant},
		{&fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, CodeIO},
		{&os.LinkError{Op: "rename", Old: "a", New: "b", Err: fs.ErrPermission}, CodeIO},
		{errors.New("other"), CodeUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.err), "err=%v", c.err)
	}
}

func TestMetrics(t *testing.T) {
	ResetMetrics()
	IncOp("writer", "write", "success")
	IncOp("writer", "write", "success")
	IncError("reader", string(CodeSourceUnavailable))
	ObserveDuration("extractor", "extract", 3)
	AddExtracted("Lucide.h", 7, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(opTotal.WithLabelValues("writer", "write", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(errTotal.WithLabelValues("reader", "source_unavailable")))
	assert.Equal(t, 7.0, testutil.ToFloat64(macros.WithLabelValues("Lucide.h")))
	assert.Equal(t, 1.0, testutil.ToFloat64(skipped.WithLabelValues("Lucide.h")))

	path := filepath.Join(t.TempDir(), "icongen.prom")
	require.NoError(t, WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "icongen_op_total")
	assert.Contains(t, string(b), "icongen_macros_total")
}

// 非 TTY：关键节点分行打印
func TestTerminalLines(t *testing.T) {
	var buf bytes.Buffer
	tm := NewTerminal(&buf, true)
	tm.RunStart(2)
	tm.SourceStart("fonts/Lucide.h")
	tm.SourceFinish(true, 7, 12*time.Millisecond)
	tm.SourceStart("Missing.h")
	tm.SourceFinish(false, 0, 1500*time.Millisecond)
	tm.RunFinish(false)

	out := buf.String()
	assert.Contains(t, out, "[run] 源文件 2")
	assert.Contains(t, out, "[src] Lucide.h | 1/2")
	assert.Contains(t, out, "[done] Lucide.h | 图标 7 | 用时 12ms")
	assert.Contains(t, out, "[fail] Missing.h | 图标 0 | 用时 1.5s")
	assert.Contains(t, out, "失败 1")
}

func TestTerminalDisabled(t *testing.T) {
	var buf bytes.Buffer
	tm := NewTerminal(&buf, false)
	tm.RunStart(1)
	tm.SourceStart("a.h")
	tm.SourceFinish(true, 1, time.Millisecond)
	tm.RunFinish(true)
	assert.Empty(t, buf.String())

	var nilT *Terminal
	assert.NotPanics(t, func() { nilT.RunStart(1); nilT.RunFinish(true) })
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

// 写失败后禁用
func TestTerminalWriteFailureDisables(t *testing.T) {
	tm := NewTerminal(failWriter{}, true)
	tm.RunStart(1)
	assert.False(t, tm.enabled)
}

func TestShortenBase(t *testing.T) {
	assert.Equal(t, "Lucide.h", shortenBase("a/b/Lucide.h", 48))
	assert.Equal(t, "Mate…", shortenBase("MaterialSymbols.h", 5))
	assert.Equal(t, "", shortenBase("x", 0))
}
