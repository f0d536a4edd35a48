package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmstack/llmstack/internal/history"
	"github.com/llmstack/llmstack/internal/metrics"
	"github.com/llmstack/llmstack/internal/ollama"
	"github.com/llmstack/llmstack/internal/profile"
	"github.com/llmstack/llmstack/internal/supervisor"
)

// Router provides embeddable HTTP handlers for the local LLM stack.
// Endpoints:
//
//	GET    {basePath}/services       probe-only readiness snapshot
//	POST   {basePath}/services/up    run the supervisor, return the launch report
//	GET    {basePath}/models         installed Ollama models
//	POST   {basePath}/chat           streaming chat, history-aware
//	GET    {basePath}/history        query: user=...
//	DELETE {basePath}/history        query: user=...
//	POST   {basePath}/profiles       create profile
//	GET    {basePath}/profiles/:username
//	POST   {basePath}/login
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	basePath string
	sup      *supervisor.Supervisor
	specs    []supervisor.ServiceSpec
	llm      *ollama.Client
	hist     history.Store
	profiles *profile.Manager
}

// Deps carries the collaborators a Router serves.
type Deps struct {
	BasePath string
	Specs    []supervisor.ServiceSpec
	Ollama   *ollama.Client
	History  history.Store
	Profiles *profile.Manager
}

func NewRouter(d Deps) *Router {
	return &Router{
		basePath: sanitizeBase(d.BasePath),
		sup:      supervisor.New(),
		specs:    d.Specs,
		llm:      d.Ollama,
		hist:     d.History,
		profiles: d.Profiles,
	}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/services", r.handleServices)
	group.POST("/services/up", r.handleServicesUp)
	group.GET("/models", r.handleModels)
	group.POST("/chat", r.handleChat)
	group.GET("/history", r.handleHistoryGet)
	group.DELETE("/history", r.handleHistoryClear)
	group.POST("/profiles", r.handleProfileCreate)
	group.GET("/profiles/:username", r.handleProfileGet)
	group.POST("/login", r.handleLogin)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router,
// with /metrics mounted alongside the API.
func NewServer(addr string, r *Router) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", r.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// serviceState is the probe-only view of one service.
type serviceState struct {
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
	ProbedBy string `json:"probed_by"`
	Required bool   `json:"required"`
}

func (r *Router) handleServices(c *gin.Context) {
	out := make([]serviceState, 0, len(r.specs))
	for _, spec := range r.specs {
		ready := false
		probedBy := "none"
		if spec.Probe != nil {
			ok, err := spec.Probe.Ready(c.Request.Context())
			ready = ok && err == nil
			probedBy = spec.Probe.Describe()
		}
		metrics.SetReady(spec.Name, ready)
		out = append(out, serviceState{
			Name:     spec.Name,
			Ready:    ready,
			ProbedBy: probedBy,
			Required: spec.Required,
		})
	}
	writeJSON(c, http.StatusOK, out)
}

func (r *Router) handleServicesUp(c *gin.Context) {
	rep := r.sup.EnsureReady(c.Request.Context(), r.specs)
	code := http.StatusOK
	if !rep.Ok() {
		code = http.StatusBadGateway
	}
	writeJSON(c, code, rep)
}

func (r *Router) handleModels(c *gin.Context) {
	models, err := r.llm.ListModels(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, models)
}

type chatRequest struct {
	UserID  string          `json:"user_id"`
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options *ollama.Options `json:"options"`
}

// handleChat streams assistant output as NDJSON chunks and records the
// exchange in the user's history once the stream completes.
func (r *Router) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Model == "" || req.Prompt == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "model and prompt required"})
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}
	if !isSafeName(req.UserID) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid user_id"})
		return
	}

	ctx := c.Request.Context()
	past, err := r.hist.Conversation(ctx, req.UserID)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	msgs := make([]ollama.Message, 0, len(past)+1)
	for _, m := range past {
		msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ollama.Message{Role: "user", Content: req.Prompt})

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	reply, err := r.llm.Chat(ctx, ollama.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Options:  req.Options,
	}, func(chunk string) {
		writeChunk(c, chunk, false)
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		metrics.IncChatRequest(req.Model, "error")
		writeChunkError(c, err)
		return
	}
	metrics.IncChatRequest(req.Model, "ok")
	if _, err := r.hist.Append(ctx, req.UserID, req.Prompt, reply); err != nil {
		writeChunkError(c, err)
		return
	}
	writeChunk(c, "", true)
}

func (r *Router) handleHistoryGet(c *gin.Context) {
	user := c.Query("user")
	if !isSafeName(user) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "user query parameter required"})
		return
	}
	msgs, err := r.hist.Conversation(c.Request.Context(), user)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, msgs)
}

func (r *Router) handleHistoryClear(c *gin.Context) {
	user := c.Query("user")
	if !isSafeName(user) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "user query parameter required"})
		return
	}
	if err := r.hist.Clear(c.Request.Context(), user); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

type profileRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// publicProfile hides the password hash from API responses.
type publicProfile struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastLogin   time.Time `json:"last_login"`
}

func toPublic(p profile.Profile) publicProfile {
	return publicProfile{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		LastLogin:   p.LastLogin,
	}
}

func (r *Router) handleProfileCreate(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isSafeName(req.Username) || req.Password == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "username and password required"})
		return
	}
	err := r.profiles.Create(c.Request.Context(), req.Username, req.Password, req.DisplayName)
	if errors.Is(err, profile.ErrExists) {
		writeJSON(c, http.StatusConflict, errorResp{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusCreated, okResp{OK: true})
}

func (r *Router) handleProfileGet(c *gin.Context) {
	username := c.Param("username")
	if !isSafeName(username) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid username"})
		return
	}
	p, err := r.profiles.Get(c.Request.Context(), username)
	if errors.Is(err, profile.ErrNotFound) {
		writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, toPublic(p))
}

func (r *Router) handleLogin(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	err := r.profiles.Verify(ctx, req.Username, req.Password)
	if errors.Is(err, profile.ErrInvalidCredentials) {
		writeJSON(c, http.StatusUnauthorized, errorResp{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if err := r.profiles.TouchLogin(ctx, req.Username); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

// EnsureReady exposes the router's supervisor run for embedding callers.
func (r *Router) EnsureReady(ctx context.Context) supervisor.Report {
	return r.sup.EnsureReady(ctx, r.specs)
}
