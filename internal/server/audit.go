package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	auditservice "github.com/smallbiznis/paynest/internal/audit/service"
)

// requestInfo stamps the caller address onto the request context so the
// audit trail can record where an action came from.
func requestInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auditservice.WithRequestInfo(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) listAuditLogs(c *gin.Context) {
	var req auditdomain.ListAuditLogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, auditdomain.ErrInvalidTimeRange)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
