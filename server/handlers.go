package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/history"
	"github.com/store-auditor/backend/metrics"
	"github.com/store-auditor/backend/session"
)

const invalidURLMessage = "Please enter a valid store URL."

type auditRequest struct {
	URL string `json:"url" form:"url"`
}

// sessionFor returns the caller's session, issuing a cookie for new ones
func (s *Server) sessionFor(c *gin.Context) (*session.Session, error) {
	id, _ := c.Cookie(session.CookieName)

	sess, created, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, sess.ID(), 0, "/", "", c.Request.TLS != nil, true)
	}
	return sess, nil
}

// statusFor maps audit and session errors to HTTP status codes and
// user-facing messages
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, audit.ErrInvalidURL):
		return http.StatusBadRequest, invalidURLMessage
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "An audit is already in progress."
	case errors.Is(err, session.ErrNotIdle):
		return http.StatusConflict, "Reset the current audit before starting a new one."
	case errors.Is(err, audit.ErrAuditFailed):
		return http.StatusBadGateway, audit.FailureNotice
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "Audit not found."
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, message := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// runAudit drives one audit through the session state machine. A failed
// model call leaves the session idle with the failure notice set.
func (s *Server) runAudit(c *gin.Context, sess *session.Session, raw string) (session.View, error) {
	target, err := audit.NormalizeURL(raw)
	if err != nil {
		return session.View{}, err
	}
	if err := sess.Submit(); err != nil {
		return session.View{}, err
	}

	metrics.AuditsActive.Inc()
	defer metrics.AuditsActive.Dec()
	defer func() {
		if r := recover(); r != nil {
			s.failSession(sess)
			panic(r)
		}
	}()

	start := time.Now()
	report, err := s.auditor.Run(c.Request.Context(), target)
	elapsed := time.Since(start)

	if err != nil {
		s.requests.TrackAudit(target, elapsed, true)
		s.failSession(sess)
		return session.View{}, err
	}

	s.requests.TrackAudit(target, elapsed, false)

	rec := history.NewRecord(report)
	if s.history != nil {
		if err := s.history.Save(c.Request.Context(), rec); err != nil {
			s.logger.Warn("failed to store audit record", zap.String("id", rec.ID), zap.Error(err))
			rec.ID = ""
		}
	} else {
		rec.ID = ""
	}

	if err := sess.Succeed(report.Result, rec.ID); err != nil {
		return session.View{}, err
	}
	return sess.View(), nil
}

// failSession returns an analyzing session to idle with the failure notice
func (s *Server) failSession(sess *session.Session) {
	if err := sess.Fail(audit.FailureNotice); err != nil {
		s.logger.Error("session rejected failure", zap.Error(err))
	}
	if err := sess.Acknowledge(); err != nil {
		s.logger.Error("session rejected acknowledge", zap.Error(err))
	}
}

func (s *Server) createAudit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": invalidURLMessage})
		return
	}

	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	view, err := s.runAudit(c, sess, req.URL)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) currentAudit(c *gin.Context) {
	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) resetAudit(c *gin.Context) {
	sess, err := s.sessionFor(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := sess.Reset(); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) getRecord(c *gin.Context) {
	if s.history == nil {
		abortWithError(c, history.ErrNotFound)
		return
	}

	rec, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) statistics(c *gin.Context) {
	body := gin.H{
		"requests": s.requests.Snapshot(s.devMode),
	}
	if s.monthly != nil {
		body["currentMonth"] = s.monthly.GetCurrentStats()
		body["months"] = s.monthly.GetAllMonths()
	}

	c.JSON(http.StatusOK, body)
}
