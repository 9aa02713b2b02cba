// Package feed turns store writes into live, full-snapshot subscriptions.
// Writers call Notify with the collections they touched; Watch subscribes to
// those signals and re-runs its query on every one.
package feed

import (
	"context"
	"sync"
)

// Notifier carries change signals per collection. Signals carry no payload
// beyond the collection name and may be coalesced: a subscriber that has
// not consumed the previous signal does not receive another.
type Notifier interface {
	Notify(ctx context.Context, collections ...string) error
	Subscribe(ctx context.Context, collections ...string) (<-chan string, error)
}

// Local is an in-process Notifier. It serves single-instance deployments
// and tests.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[chan string]struct{}
}

// NewLocal returns an empty in-process notifier.
func NewLocal() *Local {
	return &Local{subs: make(map[string]map[chan string]struct{})}
}

// Notify signals every subscriber of the given collections.
func (l *Local) Notify(_ context.Context, collections ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range collections {
		for ch := range l.subs[c] {
			select {
			case ch <- c:
			default:
			}
		}
	}
	return nil
}

// Subscribe registers for signals until ctx is done, then closes the channel.
func (l *Local) Subscribe(ctx context.Context, collections ...string) (<-chan string, error) {
	ch := make(chan string, 1)
	l.mu.Lock()
	for _, c := range collections {
		if l.subs[c] == nil {
			l.subs[c] = make(map[chan string]struct{})
		}
		l.subs[c][ch] = struct{}{}
	}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		for _, c := range collections {
			delete(l.subs[c], ch)
			if len(l.subs[c]) == 0 {
				delete(l.subs, c)
			}
		}
		l.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// subscribers reports how many subscriptions are open on collection.
func (l *Local) subscribers(collection string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[collection])
}
