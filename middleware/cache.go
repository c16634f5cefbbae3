package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/cache"
	"storefront/metrics"
)

type cachedResponse struct {
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body so it can be cached after the handler ran.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves GET responses from store under tag. Only 200 responses are stored.
// With perUser the key is scoped to the authenticated user.
func Cache(store cache.Store, tag string, ttl time.Duration, perUser bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		var userID uint
		if perUser {
			userID, _ = CurrentUserID(c)
		}
		key := cache.Key(tag, c.Request.URL.RequestURI(), userID)

		raw, ok, err := store.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			var hit cachedResponse
			if err := json.Unmarshal(raw, &hit); err == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.Data(http.StatusOK, hit.ContentType, hit.Body)
				c.Abort()
				return
			}
		}

		metrics.CacheLookups.WithLabelValues("miss").Inc()
		c.Header("X-Cache", "MISS")
		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK || rec.buf.Len() == 0 {
			return
		}
		entry, err := json.Marshal(cachedResponse{
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(c.Request.Context(), key, entry, ttl); err != nil {
			log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// InvalidateCache drops the tags after a successful write request.
func InvalidateCache(store cache.Store, log *zap.Logger, tags ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		for _, tag := range tags {
			if _, err := store.Invalidate(c.Request.Context(), tag); err != nil {
				log.Warn("cache invalidation failed", zap.String("tag", tag), zap.Error(err))
			}
		}
	}
}
