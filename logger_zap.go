package edtrt

import "go.uber.org/zap"

// zapLogger adapts a *zap.SugaredLogger to the runtime's Logger
// interface. NewDefaultLogger builds one; NewRuntime supplies no
// Logger of its own and fails with ErrLoggerNotSet without WithLogger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a *zap.Logger as a Logger. Pass zap.NewProduction()
// or zap.NewDevelopment() (or any custom *zap.Logger) depending on the
// deployment.
func NewZapLogger(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

// NewDefaultLogger builds a Logger backed by a production zap logger,
// falling back to a no-op logger if zap construction fails (it only
// fails on misconfigured output paths, which the default config never
// sets).
func NewDefaultLogger() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		return noopLogger{}
	}
	return NewZapLogger(z)
}

func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
