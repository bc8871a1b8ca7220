package notify

import (
	"log"

	"github.com/nhle/tasktrack/internal/model"
)

// Sink receives every emitted notification for out-of-band delivery
// (status line, bell, desktop notifier). Delivery is best effort: Notify
// must not block and has no way to report failure.
type Sink interface {
	Notify(n model.Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(model.Notification)

func (f SinkFunc) Notify(n model.Notification) { f(n) }

// Discard drops everything.
var Discard Sink = SinkFunc(func(model.Notification) {})

// LogSink writes a line per notification.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(n model.Notification) {
	l := s.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf("notification [%s/%s] %s: %s", n.Type, n.Kind, n.Title, n.Message)
}

// ChanSink forwards notifications to a buffered channel, dropping them when
// the reader falls behind.
type ChanSink struct {
	ch chan model.Notification
}

// NewChanSink returns a ChanSink buffering up to size notifications.
func NewChanSink(size int) *ChanSink {
	return &ChanSink{ch: make(chan model.Notification, size)}
}

func (s *ChanSink) Notify(n model.Notification) {
	select {
	case s.ch <- n:
	default:
	}
}

// C returns the receive side of the sink.
func (s *ChanSink) C() <-chan model.Notification {
	return s.ch
}

// MultiSink fans out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Notify(n model.Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(n)
		}
	}
}
