package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderRequestTimestamp = "X-Request-Timestamp"
	HeaderReplayed         = "Idempotent-Replayed"

	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL   = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type problem struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// capture tees the response body so it can be stored for replay.
type capture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *capture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// IdempotencyMiddleware makes mutating requests safe to retry. A request is
// identified by method, route, authenticated subject and Idempotency-Key, so
// it must run after JWTAuth. Completed responses below 500 are replayed for
// ttl; server errors release the key.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, log logrus.FieldLogger) echo.MiddlewareFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	store := &replayStore{rdb: rdb, ttl: ttl}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			key, sentAt, bad := readIdempotencyHeaders(req.Header, nowUTC())
			if bad != nil {
				return c.JSON(http.StatusBadRequest, bad)
			}
			subject := Subject(c)
			if subject == "" {
				return c.JSON(http.StatusUnauthorized, problem{Error: "authentication required", Code: "UNAUTHORIZED"})
			}

			var body []byte
			if req.Body != nil {
				var err error
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, problem{Error: "unreadable body", Code: "INVALID_PARAMETERS"})
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(body)
			slot := slotKey(req.Method, c.Path(), subject, key)
			entry := log.WithField("idempotency_slot", slot)

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			won, err := store.reserve(ctx, slot, record{Fingerprint: fp, SentAt: sentAt})
			if err != nil {
				entry.WithError(err).Warn("idempotency reserve failed")
				return c.JSON(http.StatusServiceUnavailable, problem{Error: "idempotency store unavailable", Code: "IDEMPOTENCY_UNAVAILABLE"})
			}
			if !won {
				return replay(ctx, c, store, slot, fp, entry)
			}

			w := &capture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be gone
			saveCtx, cancelSave := context.WithTimeout(context.Background(), storeTimeout)
			defer cancelSave()
			if w.status >= http.StatusInternalServerError {
				if err := store.release(saveCtx, slot); err != nil {
					entry.WithError(err).Warn("idempotency release failed")
				}
				return nil
			}
			done := record{
				Status:      w.status,
				ContentType: w.Header().Get(echo.HeaderContentType),
				Body:        w.body.Bytes(),
				Fingerprint: fp,
				SentAt:      sentAt,
			}
			if err := store.finish(saveCtx, slot, done); err != nil {
				entry.WithError(err).Warn("idempotency save failed")
			}
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store *replayStore, slot, fp string, log logrus.FieldLogger) error {
	prev, err := store.load(ctx, slot)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("idempotency load failed")
		}
		return c.JSON(http.StatusConflict, problem{Error: "request is already in progress", Code: "REQUEST_IN_PROGRESS"})
	}
	if prev.Fingerprint != fp {
		return c.JSON(http.StatusConflict, problem{Error: HeaderIdempotencyKey + " reused with a different body", Code: "IDEMPOTENCY_KEY_REUSED"})
	}
	if prev.Pending {
		return c.JSON(http.StatusConflict, problem{Error: "request is already in progress", Code: "REQUEST_IN_PROGRESS"})
	}

	c.Response().Header().Set(HeaderReplayed, "true")
	if len(prev.Body) == 0 {
		return c.NoContent(prev.Status)
	}
	ct := prev.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	return c.Blob(prev.Status, ct, prev.Body)
}
