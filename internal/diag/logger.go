package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
}

// Logger 为结构化事件日志器（zerolog 承载）：
// - 全部事件写入轮转文件（单行 JSON）；
// - warn 及以上同时以 ConsoleWriter 输出到控制台（可关闭）。
// nil *Logger 的全部方法均为 no-op。
type Logger struct {
	zl   zerolog.Logger
	sink *RotatingFile
}

// LoggerOptions: 构造参数；零值可用。
type LoggerOptions struct {
	CorrID string
	Level  string
	// Dir: 日志目录，默认 "logs"；"-" 表示不写文件。
	Dir string
	// MaxBytes: 轮转阈值，默认 10MiB。
	MaxBytes int64
	// Console: 控制台输出目标；nil 表示不输出到控制台。
	Console io.Writer
}

// NewLogger 通过 level 初始化，日志写入 logs/，10MiB 轮转，warn 以上同时输出到 stderr。
func NewLogger(corrID, level string) *Logger {
	return NewLoggerWith(LoggerOptions{CorrID: corrID, Level: level, Console: os.Stderr})
}

// NewLoggerWith 按选项构造。
func NewLoggerWith(o LoggerOptions) *Logger {
	var writers []io.Writer
	l := &Logger{}
	dir := strings.TrimSpace(o.Dir)
	if dir == "" {
		dir = "logs"
	}
	if dir != "-" {
		l.sink = NewRotatingFile(dir, o.MaxBytes)
		writers = append(writers, l.sink)
	}
	if o.Console != nil {
		cw := zerolog.ConsoleWriter{Out: o.Console, TimeFormat: "15:04:05", NoColor: !isTerminal(o.Console)}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: cw},
			Level:  zerolog.WarnLevel,
		})
	}
	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	l.zl = zerolog.New(out).Level(parseLevel(o.Level)).With().Timestamp().Str("corr_id", o.CorrID).Logger()
	return l
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Close 关闭文件 sink。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Event 为标准事件结构。
type Event struct {
	Comp   string
	Stage  string // start|finish|warn|error
	Code   string
	DurMS  int64
	Count  int64
	FileID string
	Msg    string
	KV     map[string]string
}

func (l *Logger) log(lv zerolog.Level, ev Event) {
	if l == nil {
		return
	}
	e := l.zl.WithLevel(lv)
	if e == nil {
		return
	}
	e = e.Str("comp", ev.Comp).Str("stage", ev.Stage)
	if ev.Code != "" {
		e = e.Str("code", ev.Code)
	}
	if ev.DurMS > 0 {
		e = e.Int64("dur_ms", ev.DurMS)
	}
	if ev.Count > 0 {
		e = e.Int64("count", ev.Count)
	}
	if ev.FileID != "" {
		e = e.Str("file_id", ev.FileID)
	}
	if len(ev.KV) > 0 {
		d := zerolog.Dict()
		for k, v := range ev.KV {
			d = d.Str(k, v)
		}
		e = e.Dict("kv", d)
	}
	e.Msg(ev.Msg)
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWith(comp, msg, "")
}

// StartWith 记录带 file_id 的 start。
func (l *Logger) StartWith(comp, msg, fileID string) *Timer {
	l.log(zerolog.InfoLevel, Event{Comp: comp, Stage: "start", FileID: fileID, Msg: msg})
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// Warn 记录 warn 事件（例如被跳过的畸形行）。
func (l *Logger) Warn(comp, code, msg, fileID string, kv map[string]string) {
	l.log(zerolog.WarnLevel, Event{Comp: comp, Stage: "warn", Code: code, FileID: fileID, Msg: msg, KV: kv})
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWith(comp, code, msg, durSince, "", nil)
}

// ErrorWith 支持 file_id 与附加键值。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, fileID string, kv map[string]string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(zerolog.ErrorLevel, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, FileID: fileID, Msg: msg, KV: kv})
}

// DebugStart 输出调试级别的 start 类事件（仅 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, fileID string, kv map[string]string) {
	l.log(zerolog.DebugLevel, Event{Comp: comp, Stage: "start", FileID: fileID, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	t0     time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(zerolog.InfoLevel, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, FileID: t.fileID, Msg: msg})
}

// Elapsed 返回自 start 起的时长。
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}
