package middleware

import (
    "bytes"
    "crypto/sha1"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/brightevents/bright-events/internal/config"
)

// bodyRecorder captures the response body while forwarding it to the client
// so a successful payload can be stored in Redis after the handler runs.
type bodyRecorder struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    if w.buf.Len()+len(b) <= w.limit {
        w.buf.Write(b)
    } else {
        // Oversized bodies are served but not cached.
        w.buf.Reset()
        w.limit = 0
    }
    return w.ResponseWriter.Write(b)
}

// ResponseCache caches successful JSON responses of GET endpoints in Redis,
// keyed on route plus query string. It is applied to the public search and
// browse endpoints, which are read-heavy and tolerant of a short TTL of
// staleness. Misbehaving or absent Redis simply disables caching.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            key := cacheKey(cfg.Prefix, c)
            ctx := c.Request().Context()

            if cached, err := rdb.Get(ctx, key).Bytes(); err == nil {
                c.Response().Header().Set("X-Cache", "HIT")
                return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, cached)
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status == http.StatusOK && rec.buf.Len() > 0 {
                if err := rdb.Set(ctx, key, rec.buf.Bytes(), cfg.TTL).Err(); err != nil {
                    c.Logger().Warnf("cache: store failed for key=%s: %v", key, err)
                }
            }
            return nil
        }
    }
}

func cacheKey(prefix string, c echo.Context) string {
    tail := strings.Join([]string{c.Path(), c.Request().URL.RawQuery}, "?")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", prefix, sum[:])
}
