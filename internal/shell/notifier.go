// Package shell tracks page activation in the hybrid UI shell.
package shell

import (
	"sync"

	"go.uber.org/zap"
)

// Activator registers callbacks for page activation
type Activator interface {
	OnActivate(pageID string, callback func())
}

type subscription struct {
	pageID   string
	callback func()
}

// Notifier fans page-shown events out to the callbacks registered for that page.
// Events are dispatched one at a time, callbacks run in registration order.
type Notifier struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs []subscription

	// pending events, drained by whichever caller is dispatching
	queueMu     sync.Mutex
	queue       []string
	dispatching bool
}

// NewNotifier creates a new page activation notifier
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{
		logger: logger.Named("shell"),
	}
}

// OnActivate invokes callback every time pageID becomes the active page.
// Subscriptions live for the lifetime of the process.
func (n *Notifier) OnActivate(pageID string, callback func()) {
	if callback == nil {
		return
	}

	n.mu.Lock()
	n.subs = append(n.subs, subscription{pageID: pageID, callback: callback})
	n.mu.Unlock()
}

// PageShown is the entry point for the shell's page-shown event stream.
// If another event is being dispatched, including from inside a callback,
// the event is queued and dispatched after it by the same caller.
func (n *Notifier) PageShown(pageID string) {
	n.queueMu.Lock()
	n.queue = append(n.queue, pageID)
	if n.dispatching {
		n.queueMu.Unlock()
		return
	}
	n.dispatching = true
	n.queueMu.Unlock()

	n.drain()
}

func (n *Notifier) drain() {
	// a panicking callback must not leave the notifier stuck in dispatching
	defer func() {
		if r := recover(); r != nil {
			n.queueMu.Lock()
			n.dispatching = false
			n.queue = nil
			n.queueMu.Unlock()
			panic(r)
		}
	}()

	for {
		n.queueMu.Lock()
		if len(n.queue) == 0 {
			n.dispatching = false
			n.queueMu.Unlock()
			return
		}
		pageID := n.queue[0]
		n.queue = n.queue[1:]
		n.queueMu.Unlock()

		n.dispatch(pageID)
	}
}

func (n *Notifier) dispatch(pageID string) {
	n.mu.RLock()
	matched := make([]func(), 0, len(n.subs))
	for _, s := range n.subs {
		if s.pageID == pageID {
			matched = append(matched, s.callback)
		}
	}
	n.mu.RUnlock()

	n.logger.Debug("Page shown",
		zap.String("page_id", pageID),
		zap.Int("callbacks", len(matched)))

	for _, cb := range matched {
		cb()
	}
}
