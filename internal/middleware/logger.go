package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const logFieldsKey = "request_log_fields"

// AddLogField attaches a field to the request's completion log line, e.g. the
// report id served by an analytics route.
func AddLogField(c *gin.Context, key string, value any) {
	fields, _ := c.Get(logFieldsKey)
	f, ok := fields.(logrus.Fields)
	if !ok {
		f = logrus.Fields{}
		c.Set(logFieldsKey, f)
	}
	f[key] = value
}

// LoggerMiddleware writes one line per request with the matched route and
// whatever handlers added through AddLogField.
func LoggerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := logrus.Fields{
			"status":      status,
			"method":      c.Request.Method,
			"route":       route,
			"path":        c.Request.URL.Path,
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(started).Milliseconds(),
			"bytes":       c.Writer.Size(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields["query"] = q
		}
		if userID := GetUserID(c); userID != "" {
			fields["user_id"] = userID
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			for k, v := range extra.(logrus.Fields) {
				fields[k] = v
			}
		}
		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status == http.StatusTooManyRequests:
			entry.Debug("Request throttled")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request served")
		}
	}
}

// RecoveryMiddleware handles panics
func RecoveryMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logrus.Fields{
					"error":  err,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
				}).Error("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
