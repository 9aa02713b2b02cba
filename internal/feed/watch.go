package feed

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/campaign-tracker/internal/metrics"
)

// Snapshot is one complete result set. Consumers replace their view with
// Data; Err is set when the query failed and Data is then the zero value.
type Snapshot[T any] struct {
	Data T
	Err  error
	At   time.Time
}

// Watch subscribes to collections, delivers an initial snapshot and then a
// fresh one after every change signal. The channel closes when ctx is done.
func Watch[T any](ctx context.Context, n Notifier, query func(context.Context) (T, error), collections ...string) (<-chan Snapshot[T], error) {
	sig, err := n.Subscribe(ctx, collections...)
	if err != nil {
		return nil, err
	}
	label := strings.Join(collections, ",")
	done := metrics.TrackSubscriber(label)

	out := make(chan Snapshot[T], 1)
	go func() {
		defer close(out)
		defer done()

		deliver := func() bool {
			data, err := query(ctx)
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- Snapshot[T]{Data: data, Err: err, At: time.Now().UTC()}:
				metrics.RecordSnapshot(label)
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sig:
				if !ok || !deliver() {
					return
				}
			}
		}
	}()
	return out, nil
}
