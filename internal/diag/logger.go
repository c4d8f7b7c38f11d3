package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level 为日志级别，与 zapcore.Level 一一对应。
type Level = zapcore.Level

const (
	Debug = zapcore.DebugLevel
	Info  = zapcore.InfoLevel
	Warn  = zapcore.WarnLevel
	Error = zapcore.ErrorLevel
)

// Logger 为结构化事件日志器：单行 JSON，字段固定（comp/stage/code/dur_ms/count/source/kv）。
// 底层为 zap；nil 接收者上的所有方法均为 no-op。
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
	sink  *RotatingFile
}

// NewLogger 通过配置的 level 初始化。
// dir 为空或 "-" 时写 stderr；否则写入 dir 下的轮转文件（10 MiB）。
func NewLogger(corrID, level, dir string) *Logger {
	d := strings.TrimSpace(dir)
	if d == "" || d == "-" {
		return newLogger(corrID, level, zapcore.Lock(os.Stderr), nil)
	}
	sink := NewRotatingFile(d, 10*1024*1024)
	return newLogger(corrID, level, sink, sink)
}

// NewLoggerTo 将日志写入任意 io.Writer（测试与嵌入使用）。
func NewLoggerTo(corrID, level string, w io.Writer) *Logger {
	return newLogger(corrID, level, zapcore.AddSync(w), nil)
}

func newLogger(corrID, level string, ws zapcore.WriteSyncer, sink *RotatingFile) *Logger {
	lv := zap.NewAtomicLevelAt(ParseLevel(level))
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		LevelKey:       "level",
		TimeKey:        "ts",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     utcRFC3339,
		EncodeDuration: zapcore.MillisDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	})
	z := zap.New(zapcore.NewCore(enc, ws, lv)).With(zap.String("corr_id", corrID))
	return &Logger{z: z, level: lv, sink: sink}
}

func utcRFC3339(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339))
}

// ParseLevel 解析级别名；未知值回退为 info。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// SetLevel 运行期调整级别。
func (l *Logger) SetLevel(level string) {
	if l == nil {
		return
	}
	l.level.SetLevel(ParseLevel(level))
}

// Close 刷新并关闭文件 sink（若有）。
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// Event 为标准事件结构。
type Event struct {
	Comp   string
	Stage  string // start|finish|error
	Code   string
	DurMS  int64
	Count  int64
	Source string
	Msg    string
	KV     map[string]string
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil {
		return
	}
	ce := l.z.Check(lv, ev.Msg)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, 7)
	fields = append(fields, zap.String("comp", ev.Comp), zap.String("stage", ev.Stage))
	if ev.Code != "" {
		fields = append(fields, zap.String("code", ev.Code))
	}
	if ev.DurMS != 0 {
		fields = append(fields, zap.Int64("dur_ms", ev.DurMS))
	}
	if ev.Count != 0 {
		fields = append(fields, zap.Int64("count", ev.Count))
	}
	if ev.Source != "" {
		fields = append(fields, zap.String("source", ev.Source))
	}
	if len(ev.KV) > 0 {
		fields = append(fields, zap.Any("kv", ev.KV))
	}
	ce.Write(fields...)
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWithKV(comp, msg, "", nil)
}

// StartWith 记录带 source 的 start。
func (l *Logger) StartWith(comp, msg, source string) *Timer {
	return l.StartWithKV(comp, msg, source, nil)
}

// StartWithKV 记录带 source 与键值的 start。
func (l *Logger) StartWithKV(comp, msg, source string, kv map[string]string) *Timer {
	if l == nil {
		return nil
	}
	l.log(Info, Event{Comp: comp, Stage: "start", Source: source, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, source: source, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, "", nil)
}

// ErrorWith 支持 source。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, source string) {
	l.ErrorWithKV(comp, code, msg, durSince, source, nil)
}

// ErrorWithKV 支持附带键值对（例如扫描计数）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, source string, kv map[string]string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Source: source, Msg: msg, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// DebugStart 输出调试级别的“start”类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, source string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", Source: source, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	source string
	t0     time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, Source: t.source, Msg: msg})
}
