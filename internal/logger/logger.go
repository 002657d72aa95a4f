package logger

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/openvideohub/videohub/internal/errors"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values fall back
// to info.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return LevelInfo
}

// LogEntry is one JSON line of output
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Error     *ErrorDetails          `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// ErrorDetails describes the error attached to an entry. Application errors
// contribute their code and category.
type ErrorDetails struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Category   string `json:"category,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// Logger writes structured JSON lines. Loggers derived with WithComponent
// or With share the parent's writer and lock.
type Logger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     Level
	component string
	fields    map[string]interface{}
}

var std atomic.Pointer[Logger]

func init() {
	std.Store(New(os.Stdout, LevelInfo, ""))
}

func New(out io.Writer, level Level, component string) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: out, level: level, component: component}
}

// SetDefault replaces the process-wide logger returned by Default
func SetDefault(l *Logger) {
	std.Store(l)
}

func Default() *Logger {
	return std.Load()
}

func (l *Logger) WithComponent(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// With returns a logger that attaches fields to every entry
func (l *Logger) With(fields map[string]interface{}) *Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, LevelDebug, msg, nil, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, LevelInfo, msg, nil, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, LevelWarn, msg, nil, fields)
}

// Error logs at error level. Entries carry the caller, and a stack trace
// when err is not a client or upstream failure.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.write(ctx, LevelError, msg, err, fields)
}

// write must be called directly from the level methods so the caller
// lookup lands on user code.
func (l *Logger) write(ctx context.Context, level Level, msg string, err error, fields []map[string]interface{}) {
	if level < l.level {
		return
	}

	var extra map[string]interface{}
	if len(fields) > 0 {
		extra = fields[0]
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
		Fields:    mergeFields(l.fields, extra),
	}
	if ctx != nil {
		entry.RequestID = apperrors.GetRequestID(ctx)
	}

	if level == LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file)) + ":" + strconv.Itoa(line)
		}
	}
	if err != nil {
		entry.Error = describe(err, level)
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		entry.Fields = map[string]interface{}{"unencodable_fields": marshalErr.Error()}
		data, _ = json.Marshal(entry)
	}
	data = append(data, '\n')

	l.mu.Lock()
	l.out.Write(data)
	l.mu.Unlock()
}

func describe(err error, level Level) *ErrorDetails {
	details := &ErrorDetails{Message: err.Error()}
	appErr, ok := apperrors.AsAppError(err)
	if ok {
		details.Code = appErr.Code
		details.Category = string(appErr.Category)
	}
	if level == LevelError && (!ok || appErr.Category == apperrors.CategoryServer) {
		buf := make([]byte, 4096)
		details.StackTrace = string(buf[:runtime.Stack(buf, false)])
	}
	return details
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	if len(base) == 0 {
		return extra
	}
	if len(extra) == 0 {
		return base
	}
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
