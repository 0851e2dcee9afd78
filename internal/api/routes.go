package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API endpoints.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {

	// Generation pipeline: prompt in, project id + code bundle out.
	router.POST("/generate", h.Generate)

	// Read paths against a materialized project.
	router.GET("/preview/:id", h.Preview)
	router.GET("/preview/:id/:file", h.Preview)
	router.GET("/download/:id", h.Download)

	// Listing of recorded generations.
	router.GET("/projects", h.ListProjects)

	// Basic health endpoint to check if the service is running.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
