package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/requestdata"
	"github.com/yungbote/matchpoint-backend/internal/services"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// RequestLog records every API request into the fetch log and the prometheus
// counters. Audit writes are fire-and-forget so a slow audit table never adds
// request latency.
type RequestLog struct {
	audit    services.AuditService
	recorder metrics.Recorder
	log      *logger.Logger
}

func NewRequestLog(audit services.AuditService, recorder metrics.Recorder, baseLog *logger.Logger) *RequestLog {
	return &RequestLog{
		audit:    audit,
		recorder: recorder,
		log:      baseLog.With("middleware", "RequestLog"),
	}
}

const auditWriteTimeout = 5 * time.Second

func (rl *RequestLog) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "/metrics" || route == "/healthcheck" {
			return
		}

		elapsed := time.Since(start)
		status := c.Writer.Status()
		rl.recorder.RecordRequest(c.Request.Method, route, status, elapsed)

		fetch := &types.FetchLog{
			Timestamp:      start.UTC(),
			Endpoint:       c.Request.URL.Path,
			Method:         c.Request.Method,
			StatusCode:     status,
			ResponseTimeMS: float64(elapsed.Microseconds()) / 1000.0,
			SourceIP:       c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			IsError:        status >= 400,
		}
		var errEntry *types.ErrorLog
		if status >= 400 {
			errEntry = &types.ErrorLog{
				Timestamp:    start.UTC(),
				ErrorType:    errorTypeForStatus(status),
				Endpoint:     c.Request.URL.Path,
				ErrorMessage: c.Errors.String(),
				StatusCode:   status,
			}
		}
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
			id := rd.UserID
			fetch.UserID = &id
			if errEntry != nil {
				errEntry.UserID = &id
			}
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			rl.audit.LogFetch(ctx, fetch)
			if errEntry != nil {
				rl.audit.LogError(ctx, errEntry)
			}
		}()
	}
}

func errorTypeForStatus(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status == 401 || status == 403:
		return "auth_error"
	case status == 404:
		return "not_found"
	case status == 409:
		return "conflict"
	default:
		return "client_error"
	}
}
