package Services

import (
	"time"

	"Attendance/Models"

	"github.com/google/uuid"
)

type options struct {
	now      func() time.Time
	newID    func() string
	notifier Notifier
}

// Option customises a service at construction.
type Option func(*options)

// WithClock replaces time.Now. The same clock decides which timestamps are
// "in the future".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the random UUID generator used for new records.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithNotifier sets who is told about leave applications and approvals.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		newID:    uuid.NewString,
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validator() *Models.Validator {
	return Models.NewValidator(o.now)
}
