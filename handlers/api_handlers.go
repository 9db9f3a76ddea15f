// --- learnzy-server/handlers/api_handlers.go ---
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnzy-server/analytics"
	"learnzy-server/db"
	"learnzy-server/ingestion"
	"learnzy-server/models"
	"learnzy-server/session"
	"learnzy-server/utils"
)

// API bundles the dependencies shared by every handler.
type API struct {
	Registry *session.Registry
	Catalog  *ingestion.Catalog
	Store    db.Store
	Logger   *zap.Logger
}

// NewAPI wires the handler set.
func NewAPI(registry *session.Registry, catalog *ingestion.Catalog, store db.Store, logger *zap.Logger) *API {
	return &API{Registry: registry, Catalog: catalog, Store: store, Logger: logger}
}

// Routes registers the JSON API on the router. auth guards every endpoint;
// admin additionally guards the bank reload.
func (a *API) Routes(router *gin.Engine, auth, admin gin.HandlerFunc) {
	apiV1 := router.Group("/api/v1")
	apiV1.Use(auth)
	{
		apiV1.GET("/tests", a.ListTests)
		apiV1.POST("/sessions", a.StartSession)
		apiV1.GET("/sessions/:session_id", a.GetSession)
		apiV1.POST("/sessions/:session_id/answer", a.AnswerQuestion)
		apiV1.POST("/sessions/:session_id/next", a.NextQuestion)
		apiV1.POST("/sessions/:session_id/previous", a.PreviousQuestion)
		apiV1.POST("/sessions/:session_id/submit", a.SubmitSession)
		apiV1.POST("/sessions/:session_id/reset", a.ResetSession)
		apiV1.GET("/sessions/:session_id/report", a.GetReport)
		apiV1.GET("/students/:email/history", a.GetHistory)
	}
	adminGroup := router.Group("/admin")
	adminGroup.Use(auth, admin)
	{
		adminGroup.POST("/reload", a.ReloadBanks)
	}
}

// ListTests lists the loaded test banks.
// GET /api/v1/tests
func (a *API) ListTests(c *gin.Context) {
	c.JSON(http.StatusOK, a.Catalog.List())
}

// StartSession creates a session for the requested test and starts it.
// POST /api/v1/sessions
func (a *API) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bank, ok := a.Catalog.Get(req.TestID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "test not found: " + req.TestID})
		return
	}

	email := c.GetString("user_email")
	sess := a.Registry.Create(email)
	duration := time.Duration(bank.DurationSeconds * float64(time.Second))
	snap, err := sess.Start(bank.ID, bank.Questions, duration)
	if err != nil {
		a.Registry.Remove(sess.ID())
		if errors.Is(err, session.ErrEmptyQuestionSet) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "test has no questions"})
			return
		}
		a.Logger.Error("failed to start session", zap.String("test_id", req.TestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}

	views := make([]models.QuestionView, len(bank.Questions))
	for i := range bank.Questions {
		views[i] = bank.Questions[i].View()
	}
	c.JSON(http.StatusOK, models.SessionResponse{
		State:     snap,
		TestTitle: bank.Title,
		Questions: views,
	})
}

// GetSession reports current state and the live countdown. Polling this
// endpoint is what drives lazy expiry between user actions.
// GET /api/v1/sessions/:session_id
func (a *API) GetSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	snap := sess.Tick(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"state":          snap,
		"time_remaining": utils.FormatClock(snap.RemainingSeconds),
	})
}

// AnswerQuestion records an answer for the session's current question.
// POST /api/v1/sessions/:session_id/answer
func (a *API) AnswerQuestion(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	var req models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := sess.Answer(req.SelectedOption)
	if err != nil {
		a.rejectAction(c, snap, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": snap})
}

// NextQuestion advances the session; a no-op at the last question.
// POST /api/v1/sessions/:session_id/next
func (a *API) NextQuestion(c *gin.Context) {
	a.navigate(c, func(s *session.Session) (models.StateSnapshot, error) { return s.Next() })
}

// PreviousQuestion steps back; a no-op at the first question.
// POST /api/v1/sessions/:session_id/previous
func (a *API) PreviousQuestion(c *gin.Context) {
	a.navigate(c, func(s *session.Session) (models.StateSnapshot, error) { return s.Previous() })
}

func (a *API) navigate(c *gin.Context, move func(*session.Session) (models.StateSnapshot, error)) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	snap, err := move(sess)
	if err != nil {
		a.rejectAction(c, snap, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": snap})
}

// SubmitSession finishes the attempt and returns the analytics report with
// its improvement plan.
// POST /api/v1/sessions/:session_id/submit
func (a *API) SubmitSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	snap, err := sess.Submit()
	if err != nil && snap.Status != models.StatusCompleted {
		a.rejectAction(c, snap, err)
		return
	}
	// The countdown may have force-completed the session before this
	// request landed; the report is served either way.
	c.JSON(http.StatusOK, a.reportResponse(sess, snap))
}

// GetReport computes the report for a session at any point; mid-test it
// covers the answers so far.
// GET /api/v1/sessions/:session_id/report
func (a *API) GetReport(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	snap := sess.Tick(time.Now())
	if snap.Status == models.StatusNotStarted {
		c.JSON(http.StatusConflict, gin.H{"error": "session has not started"})
		return
	}
	c.JSON(http.StatusOK, a.reportResponse(sess, snap))
}

// ResetSession aborts the attempt for a retake.
// POST /api/v1/sessions/:session_id/reset
func (a *API) ResetSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	snap, err := sess.Reset()
	if err != nil {
		a.rejectAction(c, snap, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": snap})
}

// GetHistory lists a student's past attempts.
// GET /api/v1/students/:email/history
func (a *API) GetHistory(c *gin.Context) {
	studentEmail := c.Param("email")
	userEmail := c.GetString("user_email")
	isAdmin := utils.ContainsString(c.GetStringSlice("user_roles"), "admin")
	if studentEmail != userEmail && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. You can only view your own history."})
		return
	}

	history, err := a.Store.ListHistory(c.Request.Context(), studentEmail)
	if err != nil {
		a.Logger.Error("failed to load history", zap.String("email", studentEmail), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, history)
}

// ReloadBanks re-reads the question banks from disk.
// POST /admin/reload
func (a *API) ReloadBanks(c *gin.Context) {
	if err := a.Catalog.Reload(); err != nil {
		a.Logger.Error("bank reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload test banks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": a.Catalog.List()})
}

func (a *API) reportResponse(sess *session.Session, snap models.StateSnapshot) models.ReportResponse {
	questions, ledger := sess.ReportInputs()
	report := analytics.ComputeReport(questions, ledger)
	return models.ReportResponse{
		State:           snap,
		Report:          report,
		Recommendations: analytics.Recommend(report),
	}
}

// ownedSession resolves the path parameter and enforces that the caller
// owns the session.
func (a *API) ownedSession(c *gin.Context) (*session.Session, bool) {
	sess, err := a.Registry.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	if sess.Snapshot().Email != c.GetString("user_email") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this session"})
		return nil, false
	}
	return sess, true
}

// rejectAction maps expected session errors onto HTTP statuses.
func (a *API) rejectAction(c *gin.Context, snap models.StateSnapshot, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "state": snap})
	case errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": snap})
	default:
		a.Logger.Error("session action failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session action failed"})
	}
}
