package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/session"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Status   session.Status
	Result   *audit.AuditResult
	Pillars  []audit.AuditMetric
	RecordID string
	Notice   string
	Input    string
	Model    string
}

// modelNamer is implemented by runners that know their model
type modelNamer interface {
	Model() string
}

func (s *Server) renderDashboard(c *gin.Context, status int, view session.View, input string) {
	data := dashboardData{
		Status:   view.Status,
		Result:   view.Result,
		RecordID: view.RecordID,
		Notice:   view.Notice,
		Input:    input,
		Model:    audit.DefaultModel,
	}
	if named, ok := s.auditor.(modelNamer); ok {
		data.Model = named.Model()
	}
	if view.Result != nil {
		m := view.Result.Metrics
		data.Pillars = []audit.AuditMetric{m.SEO, m.UX, m.Performance, m.Content}
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render dashboard", zap.Error(err))
		c.String(http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) dashboard(c *gin.Context) {
	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.renderDashboard(c, http.StatusOK, sess.View(), "")
}

func (s *Server) dashboardAudit(c *gin.Context) {
	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req auditRequest
	_ = c.ShouldBind(&req)

	if _, err := s.runAudit(c, sess, req.URL); err != nil {
		status, message := statusFor(err)
		if status != http.StatusBadGateway {
			// Input and conflict errors leave the session untouched
			view := sess.View()
			view.Notice = message
			s.renderDashboard(c, status, view, req.URL)
			return
		}
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) dashboardReset(c *gin.Context) {
	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := sess.Reset(); err != nil {
		status, message := statusFor(err)
		view := sess.View()
		view.Notice = message
		s.renderDashboard(c, status, view, "")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}
