package logger

import (
	"io/ioutil"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// Reporter forwards fatal errors to Sentry. A zero DSN yields a Reporter
// that drops everything.
type Reporter struct {
	log *logrus.Logger
}

// NewReporter builds a Reporter for dsn.
func NewReporter(dsn string) (*Reporter, error) {
	l := logrus.New()
	l.Out = ioutil.Discard
	if dsn == "" {
		return &Reporter{log: l}, nil
	}
	hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	})
	if err != nil {
		return nil, err
	}
	l.Hooks.Add(hook)
	return &Reporter{log: l}, nil
}

// Error reports err with optional key/value context.
func (r *Reporter) Error(msg string, err error, ctx ...interface{}) {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(ctx); i += 2 {
		if k, ok := ctx[i].(string); ok {
			fields[k] = ctx[i+1]
		}
	}
	r.log.WithFields(fields).WithError(err).Error(msg)
}
