package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger that carries exactly one component attribute.
// root holds every other attribute so the component can be swapped without
// repeating it on the record.
type Logger struct {
	*slog.Logger
	root      *slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// Handler overrides the default text handler on stdout.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return wrap(slog.New(handler), component)
}

func wrap(root *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		root:      root,
		component: component,
	}
}

// Discard drops every record.
func Discard() *Logger {
	return New(Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func (l *Logger) With(args ...any) *Logger {
	return wrap(l.root.With(args...), l.component)
}

// WithComponent keeps the handler and attributes but relabels the component.
func (l *Logger) WithComponent(component string) *Logger {
	return wrap(l.root, component)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes package-level slog calls through logger's handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.root)
}
