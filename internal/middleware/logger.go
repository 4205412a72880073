package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CtxLogger is the context key of the request scoped logger.
const CtxLogger = "logger"

// RequestLogger tags each request with an id (taken from X-Request-ID or
// generated), stores a logger carrying it in the context and logs one
// line per request when it completes.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			entry := log.WithField("request_id", rid)
			c.Set(CtxLogger, entry)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":     req.Method,
				"route":      c.Path(),
				"path":       req.URL.Path,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
			}
			if id := UserID(c); id != 0 {
				fields["user_id"] = id
			}
			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithFields(fields).Error("request")
			case status >= 400:
				entry.WithFields(fields).Warn("request")
			default:
				entry.WithFields(fields).Info("request")
			}
			return nil
		}
	}
}

// Logger returns the request scoped logger, or fallback outside
// RequestLogger.
func Logger(c echo.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := c.Get(CtxLogger).(logrus.FieldLogger); ok {
		return l
	}
	return fallback
}
