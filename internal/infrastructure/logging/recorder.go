package logging

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

const defaultRecorderLimit = 1000

// Level identifies the severity of a recorded entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Entry is a single recorded log call.
type Entry struct {
	Level  Level
	Msg    string
	Fields map[string]interface{}

	ctx  context.Context
	args []interface{}
}

// Field returns the value recorded for key.
func (e Entry) Field(key string) (interface{}, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// Recorder keeps the most recent log entries in a bounded ring. The CLI uses
// it to hold entries emitted before configuration decides the real sink, and
// tests use it to assert on what a component logged.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewRecorder creates a recorder with the provided capacity (defaults to 1000).
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultRecorderLimit
	}
	return &Recorder{
		limit:   limit,
		entries: make([]Entry, 0, min(limit, 64)),
	}
}

// Logger returns a ports.Logger writing into the recorder.
func (r *Recorder) Logger() ports.Logger {
	return &recordingLogger{recorder: r}
}

// Entries returns a copy of the recorded entries, oldest first.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns how many recorded entries carry the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, entry := range r.entries {
		if entry.Level == level {
			n++
		}
	}
	return n
}

// Flush replays recorded entries into delegate, preserving ordering, and
// empties the recorder.
func (r *Recorder) Flush(delegate ports.Logger) {
	if delegate == nil {
		return
	}
	r.mu.Lock()
	entries := append([]Entry(nil), r.entries...)
	r.entries = r.entries[:0]
	r.mu.Unlock()

	for _, entry := range entries {
		switch entry.Level {
		case LevelDebug:
			delegate.Debug(entry.ctx, entry.Msg, entry.args...)
		case LevelWarn:
			delegate.Warn(entry.ctx, entry.Msg, entry.args...)
		case LevelError:
			delegate.Error(entry.ctx, entry.Msg, entry.args...)
		default:
			delegate.Info(entry.ctx, entry.Msg, entry.args...)
		}
	}
}

func (r *Recorder) add(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == r.limit {
		copy(r.entries, r.entries[1:])
		r.entries[len(r.entries)-1] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

type recordingLogger struct {
	recorder *Recorder
	fields   []interface{}
}

func (l *recordingLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, LevelDebug, msg, fields...)
}

func (l *recordingLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, LevelInfo, msg, fields...)
}

func (l *recordingLogger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, LevelWarn, msg, fields...)
}

func (l *recordingLogger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, LevelError, msg, fields...)
}

func (l *recordingLogger) With(fields ...interface{}) ports.Logger {
	next := append(append([]interface{}{}, l.fields...), fields...)
	return &recordingLogger{recorder: l.recorder, fields: next}
}

func (l *recordingLogger) log(ctx context.Context, level Level, msg string, fields ...interface{}) {
	if l == nil || l.recorder == nil {
		return
	}
	merged := newFieldSet().add(l.fields...).add(fields...).addContext(ctx).pairs()
	m := make(map[string]interface{}, len(merged)/2)
	for i := 0; i+1 < len(merged); i += 2 {
		m[merged[i].(string)] = merged[i+1]
	}
	l.recorder.add(Entry{
		Level:  level,
		Msg:    msg,
		Fields: m,
		ctx:    ctx,
		args:   merged,
	})
}
