package remote

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxPayloadSize = 4 << 20 // 4MB

// HeaderDocumentStatus marks a 404 as coming from the document service
// itself. A 404 without it is a routing failure, not a missing document.
const (
	HeaderDocumentStatus = "X-Weekgrid-Document"
	documentMissing      = "missing"
)

// Server exposes a DocumentStore over HTTP.
type Server struct {
	store  DocumentStore
	token  string
	logger *slog.Logger
	router *gin.Engine
}

// NewServer builds the document service. When token is non-empty every
// /v1 request must carry it as a bearer token.
func NewServer(store DocumentStore, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	router := gin.New()
	// Identity ids may contain escaped slashes.
	router.UseRawPath = true
	router.Use(gin.Recovery())

	s := &Server{
		store:  store,
		token:  token,
		logger: logger.With("component", "remote-server"),
		router: router,
	}
	router.Use(s.logRequests)

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/v1")
	api.Use(s.requireToken)
	{
		api.GET("/planner-states/:uid", s.handleGet)
		api.PUT("/planner-states/:uid", s.handlePut)
	}

	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) logRequests(c *gin.Context) {
	c.Next()
	s.logger.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status())
}

func (s *Server) requireToken(c *gin.Context) {
	if s.token == "" {
		c.Next()
		return
	}
	got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
		return
	}
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGet(c *gin.Context) {
	uid := c.Param("uid")

	env, err := s.store.Get(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.Header(HeaderDocumentStatus, documentMissing)
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		s.logger.Error("reading document", "uid", uid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, env)
}

func (s *Server) handlePut(c *gin.Context) {
	uid := c.Param("uid")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > maxPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document exceeds maximum size of 4MB"})
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if env.Legacy != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be a JSON string"})
		return
	}
	if !json.Valid([]byte(env.Payload)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is not valid JSON"})
		return
	}

	stored, err := s.store.Put(c.Request.Context(), uid, env)
	if err != nil {
		s.logger.Error("writing document", "uid", uid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stored)
}
