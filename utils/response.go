package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response: a machine-readable reason
// plus a human-readable message list.
func JSONError(c *gin.Context, status int, reason string, errs ...error) {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}
	c.JSON(status, gin.H{
		"status": status,
		"reason": reason,
		"errors": messages,
	})
}
