package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/feed"
)

// serveStream writes every value from ch as a server-sent event until the
// client goes away or ch closes. A comment line is written every beat so
// proxies keep the connection open.
func serveStream[E any](c echo.Context, beat time.Duration, ch <-chan E, frame func(E) (string, any)) error {
	if beat <= 0 {
		beat = 15 * time.Second
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	tick := time.NewTicker(beat)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			name, payload := frame(v)
			b, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, b); err != nil {
				return nil
			}
		}
		res.Flush()
	}
}

func snapshotFrame[T any](s feed.Snapshot[T]) (string, any) {
	if s.Err != nil {
		// The subscription stays open; the next change may succeed.
		return "error", echo.Map{"error": "temporarily unavailable, please retry", "at": s.At}
	}
	return "snapshot", echo.Map{"data": s.Data, "at": s.At}
}

// watch opens a snapshot subscription bound to the request and streams it.
// Errors from opening (typically authorization) are plain JSON responses.
func watch[T any](c echo.Context, beat time.Duration, open func(context.Context) (<-chan feed.Snapshot[T], error)) error {
	ch, err := open(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return serveStream(c, beat, ch, snapshotFrame[T])
}
