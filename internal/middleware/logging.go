package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campaign-tracker/internal/logging"
    "github.com/iliyamo/campaign-tracker/internal/metrics"
)

// RequestLogger logs one line per request and records HTTP metrics. The
// endpoint label is the route pattern, not the raw path.
func RequestLogger(logger *logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            dur := time.Since(start)

            req, res := c.Request(), c.Response()
            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            l := logger
            if rid := res.Header().Get(echo.HeaderXRequestID); rid != "" {
                l = l.WithRequestID(rid)
            }
            l.LogHTTPRequest(req.Method, req.URL.Path, c.RealIP(), res.Status, dur)
            metrics.RecordHTTPRequest(req.Method, path, strconv.Itoa(res.Status), dur.Seconds())
            return nil
        }
    }
}
