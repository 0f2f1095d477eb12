package status

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const eventsPath = "/events"

// ginLogger logs every request through logger. Event streams stay open for a
// whole run, so they are logged when they open and close instead of by latency.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// other handler can change c.Path so:
		path := c.Request.URL.Path
		start := time.Now()

		if path == eventsPath {
			logger.WithField("remote", c.Request.RemoteAddr).Info("status client following events")
		}

		c.Next()

		elapsed := time.Since(start)
		statusCode := c.Writer.Status()
		dataLength := c.Writer.Size()
		if dataLength < 0 {
			dataLength = 0
		}

		entry := logger.WithFields(logrus.Fields{
			"statusCode": statusCode,
			"latency":    elapsed.Milliseconds(),
			"method":     c.Request.Method,
			"path":       path,
			"dataLength": dataLength,
		})

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case path == eventsPath && statusCode == http.StatusOK:
			entry.Infof("event stream closed after %s", elapsed.Round(time.Second))
		case statusCode >= http.StatusInternalServerError:
			entry.Error(requestLine(c, path, statusCode, elapsed))
		case statusCode >= http.StatusBadRequest:
			entry.Warn(requestLine(c, path, statusCode, elapsed))
		default:
			entry.Debug(requestLine(c, path, statusCode, elapsed))
		}
	}
}

func requestLine(c *gin.Context, path string, statusCode int, elapsed time.Duration) string {
	return fmt.Sprintf("%s %s %d (%dms)", c.Request.Method, path, statusCode, elapsed.Milliseconds())
}
