package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/services"
)

// respondError maps a service error onto its HTTP status and body. Anything
// not typed by the services package is logged and reported as a 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error, action string) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": validationErr.Errors,
		})
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}

	_ = c.Error(err)
	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).WithError(err).Error("Failed to " + action)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func invalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Validation failed",
		"errors": []services.FieldError{{
			Field:   "body",
			Message: "Request body must be valid JSON: " + err.Error(),
		}},
	})
}

// NotFound answers every unmatched route
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
}
