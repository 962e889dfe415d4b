package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
)

// DefaultAddr is the admin API listen address
const DefaultAddr = "127.0.0.1:9876"

// Conversations is what the admin API reads and resets
type Conversations interface {
	Scopes(ctx context.Context) ([]*domain.ScopeSummary, error)
	History(ctx context.Context, scope string) ([]*domain.ResponseRecord, error)
	ResetScope(ctx context.Context, scope string) (int64, error)
}

// Server provides the loopback admin API
type Server struct {
	conversations Conversations
	addr          string
	log           *zap.Logger

	server *http.Server
}

// ScopeView is a conversation scope in API responses
type ScopeView struct {
	Scope          string    `json:"scope"`
	Turns          int       `json:"turns"`
	LastResponseID string    `json:"last_response_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecordView is a history record in API responses
type RecordView struct {
	ResponseID string    `json:"response_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewServer creates a new API server
func NewServer(conversations Conversations, addr string, log *zap.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		conversations: conversations,
		addr:          addr,
		log:           log,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	conv := r.Group("/api/conversations")
	{
		conv.GET("", s.listScopes)
		conv.GET("/:scope", s.getScope)
		conv.DELETE("/:scope", s.resetScope)
	}
	return r
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.log.Info("starting admin API", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) listScopes(c *gin.Context) {
	scopes, err := s.conversations.Scopes(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]ScopeView, 0, len(scopes))
	for _, sc := range scopes {
		views = append(views, ScopeView{
			Scope:          sc.Scope,
			Turns:          sc.Turns,
			LastResponseID: sc.LastResponseID,
			UpdatedAt:      sc.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"scopes": views})
}

func (s *Server) getScope(c *gin.Context) {
	scope := c.Param("scope")
	records, err := s.conversations.History(c.Request.Context(), scope)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "scope not found"})
		return
	}

	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, RecordView{ResponseID: rec.ResponseID, CreatedAt: rec.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "records": views})
}

func (s *Server) resetScope(c *gin.Context) {
	removed, err := s.conversations.ResetScope(c.Request.Context(), c.Param("scope"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("admin request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
