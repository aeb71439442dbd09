package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/angelmondragon/cogsdesk-backend/pkg/env"
	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. Level is a level name; blank or
// unknown names log at info. An empty Format falls back to COGSDESK_LOG_FORMAT
// so bootstrap loggers honour it before config loads.
type Options struct {
	ServiceName string
	Level       string
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger methods are safe on a nil receiver; they log nothing and return the
// context unchanged.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

// scope is what request handling threads through the context: the enriched
// zerolog child plus the identifiers other layers need to read back.
type scope struct {
	log       zerolog.Logger
	requestID string
	tenantID  string
	userID    string
}

type ctxKey struct{}

func New(opts Options) *Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = env.Get("COGSDESK_LOG_FORMAT", FormatJSON)
	}
	if format == FormatConsole {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	ctxBuilder := zerolog.New(output).With().Timestamp()
	if opts.ServiceName != "" {
		ctxBuilder = ctxBuilder.Str("service", opts.ServiceName)
	}

	return &Logger{
		base:      ctxBuilder.Logger().Level(ParseLevel(opts.Level)),
		warnStack: opts.WarnStack,
	}
}

// ParseLevel maps a configured level name onto zerolog, falling back to info.
func ParseLevel(value string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) current(ctx context.Context) scope {
	if ctx != nil {
		if sc, ok := ctx.Value(ctxKey{}).(*scope); ok {
			return *sc
		}
	}
	return scope{log: l.base}
}

func store(ctx context.Context, sc scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &sc)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	if l == nil {
		return ctx
	}
	sc := l.current(ctx)
	sc.log = sc.log.With().Interface(key, value).Logger()
	return store(ctx, sc)
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if l == nil {
		return ctx
	}
	if len(fields) == 0 {
		return ctx
	}
	sc := l.current(ctx)
	sc.log = sc.log.With().Fields(fields).Logger()
	return store(ctx, sc)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	if l == nil {
		return ctx
	}
	sc := l.current(ctx)
	sc.requestID = requestID
	sc.log = sc.log.With().Str("request_id", requestID).Logger()
	return store(ctx, sc)
}

func (l *Logger) WithTenantID(ctx context.Context, tenantID string) context.Context {
	if l == nil {
		return ctx
	}
	sc := l.current(ctx)
	sc.tenantID = tenantID
	sc.log = sc.log.With().Str("tenant_id", tenantID).Logger()
	return store(ctx, sc)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	if l == nil {
		return ctx
	}
	sc := l.current(ctx)
	sc.userID = userID
	sc.log = sc.log.With().Str("user_id", userID).Logger()
	return store(ctx, sc)
}

// RequestIDFromContext returns the id attached by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sc, ok := ctx.Value(ctxKey{}).(*scope); ok {
		return sc.requestID
	}
	return ""
}

// TenantIDFromContext returns the tenant attached by WithTenantID, if any.
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sc, ok := ctx.Value(ctxKey{}).(*scope); ok {
		return sc.tenantID
	}
	return ""
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	sc := l.current(ctx)
	sc.log.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	sc := l.current(ctx)
	sc.log.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	sc := l.current(ctx)
	event := sc.log.Warn()
	if l.warnStack {
		event = event.Str("stack", callerStack())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	if l == nil {
		return
	}
	sc := l.current(ctx)
	event := sc.log.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", callerStack()).Msg(msg)
}

// callerStack drops the goroutine header and the frames inside this package
// so the trace starts at the code that logged.
func callerStack() string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	start := 1
	for i := 1; i+1 < len(lines); i += 2 {
		fn := lines[i]
		if strings.Contains(fn, "runtime/debug.Stack") || strings.Contains(fn, "/pkg/logger.") {
			start = i + 2
			continue
		}
		break
	}
	if start >= len(lines) {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[start:], "\n")
}
