package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitegen_server/internal/ai"
	"sitegen_server/internal/logger"
	"sitegen_server/internal/project"
	"sitegen_server/internal/types"
)

// SiteGenerator is the model-client dependency of the API layer. Tests
// substitute a fake so the pipeline runs without the external service.
type SiteGenerator interface {
	GenerateSite(ctx context.Context, userPrompt string) (string, error)
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	generator SiteGenerator
	store     *project.Store
	index     *project.Index
	log       *logger.Logger
}

func NewAPIHandler(generator SiteGenerator, store *project.Store, index *project.Index, log *logger.Logger) *APIHandler {
	return &APIHandler{
		generator: generator,
		store:     store,
		index:     index,
		log:       log,
	}
}

// --- Structs for API Requests/Responses ---

type GenerateRequest struct {
	// Any string is accepted, including empty; only malformed JSON is rejected.
	Prompt string `json:"prompt"`
}

type GenerateResponse struct {
	ID     string           `json:"id"`
	Code   types.CodeBundle `json:"code"`
	Status string           `json:"status"` // "ok" or "partial"
	// Labels the model's output carried no well-formed fence for.
	Missing []string `json:"missing,omitempty"`
}

// --- API Handlers ---

// POST /generate
func (h *APIHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	raw, err := h.generator.GenerateSite(c.Request.Context(), req.Prompt)
	if err != nil {
		h.log.Error("site generation failed", "error", err)
		if errors.Is(err, ai.ErrUpstreamUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream model unavailable", "retryable": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate site"})
		return
	}

	extracted := ai.ExtractCodeBundle(raw)
	if extracted.Partial() {
		h.log.Warn("model output parsed partially", "missing", extracted.Missing)
	}

	id, err := h.store.CreateProject(extracted.Bundle)
	if err != nil {
		h.log.Error("failed to materialize project", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store generated site"})
		return
	}

	// Index failures don't lose the project on disk; log and serve anyway.
	if err := h.index.Add(c.Request.Context(), id, req.Prompt); err != nil {
		h.log.Warn("failed to index project", "id", id, "error", err)
	}

	status := "ok"
	if extracted.Partial() {
		status = "partial"
	}
	c.JSON(http.StatusOK, GenerateResponse{
		ID:      id,
		Code:    extracted.Bundle,
		Status:  status,
		Missing: extracted.Missing,
	})
}

// GET /preview/:id and GET /preview/:id/:file
func (h *APIHandler) Preview(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("file")
	if name == "" {
		name = project.MarkupFile
	}

	path, err := h.store.ResolveFile(id, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project file not found"})
		return
	}
	c.File(path)
}

// GET /download/:id
func (h *APIHandler) Download(c *gin.Context) {
	id := c.Param("id")

	archivePath, err := h.store.Archive(id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.log.Error("failed to archive project", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive project"})
		return
	}
	c.FileAttachment(archivePath, id+".zip")
}

// GET /projects
func (h *APIHandler) ListProjects(c *gin.Context) {
	records, err := h.index.List(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list projects", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": records})
}
