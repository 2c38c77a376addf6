// Package server exposes the consensus runner over HTTP and over the Model
// Context Protocol.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/run-bigpig/consilium/internal/config"
	"github.com/run-bigpig/consilium/internal/consensus"
	"github.com/run-bigpig/consilium/internal/logger"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/session"
	"github.com/run-bigpig/consilium/internal/transcript"
)

var log = logger.New("Server")

// Server serves the HTTP API.
type Server struct {
	store  session.Store
	runner *consensus.Runner
	addr   string
}

func New(store session.Store, runner *consensus.Runner, addr string) *Server {
	return &Server{store: store, runner: runner, addr: addr}
}

// router assembles the gin handler tree.
func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	{
		api.POST("/discussions", s.handleDiscussion)
		api.POST("/keys", s.handleKeys)
		api.GET("/models", s.handleModels)
		api.GET("/sessions/:id/state", s.handleState)
		api.GET("/sessions/:id/log", s.handleLog)
		api.GET("/sessions/:id/answer", s.handleAnswer)
	}
	return router
}

// Run blocks serving HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router()}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening on %s", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type discussionRequest struct {
	Question         string `json:"question" binding:"required"`
	DiscussionRounds int    `json:"discussion_rounds"`
	DecisionProtocol string `json:"decision_protocol"`
	RoleAssignment   string `json:"role_assignment"`
	Topology         string `json:"topology"`
	ModeratorModel   string `json:"moderator_model"`
	SessionID        string `json:"session_id"`
}

type discussionResponse struct {
	StatusText          string `json:"status_text"`
	FinalAnswer         string `json:"final_answer"`
	DiscussionLog       string `json:"discussion_log"`
	SessionID           string `json:"session_id"`
	RoundtableStateJSON any    `json:"roundtable_state"`
}

// handleDiscussion runs a discussion synchronously and returns the full
// outcome. Clients wanting live progress poll the session state endpoint
// while this call is in flight.
func (s *Server) handleDiscussion(c *gin.Context) {
	var req discussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.runner.Run(c.Request.Context(), runnerRequest(req))
	if err != nil && !errors.Is(err, consensus.ErrNoModels) {
		log.Error("discussion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if errors.Is(err, consensus.ErrNoModels) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, discussionResponse{
		StatusText:          res.Status,
		FinalAnswer:         res.FinalAnswer,
		DiscussionLog:       res.LogMarkdown,
		SessionID:           res.SessionID,
		RoundtableStateJSON: res.State,
	})
}

type keysRequest struct {
	SessionID string            `json:"session_id"`
	Keys      map[string]string `json:"keys" binding:"required"`
}

func (s *Server) handleKeys(c *gin.Context) {
	var req keysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := s.store.GetOrCreate(req.SessionID)
	updated := 0
	for provider, secret := range req.Keys {
		if secret == "" {
			continue
		}
		s.store.UpdateCredential(sess.ID, provider, secret)
		updated++
	}
	c.JSON(http.StatusOK, gin.H{
		"status_text": "API keys updated for this session",
		"updated":     updated,
		"session_id":  sess.ID,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	sess := s.store.GetOrCreate(c.Query("session_id"))
	report := config.StatusReport(func(provider string) string {
		return s.store.Credential(sess.ID, provider)
	})
	c.JSON(http.StatusOK, gin.H{"report": report, "session_id": sess.ID})
}

func (s *Server) handleState(c *gin.Context) {
	sess, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (s *Server) handleLog(c *gin.Context) {
	sess, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": transcript.FormatLog(sess.Log())})
}

func (s *Server) handleAnswer(c *gin.Context) {
	sess, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"final_answer": sess.FinalAnswer()})
}

func runnerRequest(req discussionRequest) consensus.DiscussionRequest {
	// Unknown or empty enum values fall back to engine defaults.
	return consensus.DiscussionRequest{
		SessionID: req.SessionID,
		Question:  req.Question,
		Rounds:    req.DiscussionRounds,
		Protocol:  models.DecisionProtocol(req.DecisionProtocol),
		Roles:     models.RoleAssignment(req.RoleAssignment),
		Topology:  models.Topology(req.Topology),
		Moderator: req.ModeratorModel,
	}
}
