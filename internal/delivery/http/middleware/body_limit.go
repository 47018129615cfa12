package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimit guards the .dzn upload routes. Requests that declare a
// Content-Length over maxBytes are rejected with 413 before the multipart body
// is read; chunked uploads are cut off by http.MaxBytesReader, which the solve
// handler maps to the same 413.
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	tooLarge := gin.H{
		"status":  "REJECTED",
		"message": fmt.Sprintf("upload exceeds %d bytes", maxBytes),
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.Header("Connection", "close")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
