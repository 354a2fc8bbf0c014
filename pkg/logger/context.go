package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

const entryKey contextKey = "logger"

// WithContext 将带请求字段的日志实例放入 context
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// FromContext 取出请求级日志实例
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(GetLogger())
}
