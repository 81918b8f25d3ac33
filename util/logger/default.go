package logger

import "go.uber.org/zap"

var (
	defaultLogger = NewLogger("drcarve", zap.InfoLevel)
)

func SetupDefaultLogger(l *zap.SugaredLogger) {
	defaultLogger = l
}

// Default 返回当前的全局日志器.
func Default() *zap.SugaredLogger {
	return defaultLogger
}

// OrDefault 当 l 为 nil 时返回全局日志器.
func OrDefault(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return defaultLogger
	}
	return l
}

func Debugf(template string, args ...interface{}) {
	defaultLogger.Debugf(template, args...)
}
