package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Saved writes 201 when the request created the entity and 200 when it
// replaced an existing one.
func Saved(c *gin.Context, created bool, payload interface{}) {
	if created {
		JSON(c, http.StatusCreated, payload)
		return
	}
	OK(c, payload)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
