package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var errorMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "unauthorised",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "Internal Server Error",
}

func errorBody(status int) gin.H {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	return gin.H{"success": false, "error": status, "message": msg}
}

func abortWithStatus(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, errorBody(status))
}

// NoRoute renders unknown paths with the JSON error envelope.
func NoRoute(c *gin.Context) {
	abortWithStatus(c, http.StatusNotFound)
}

// NoMethod renders known paths with an unsupported method.
func NoMethod(c *gin.Context) {
	abortWithStatus(c, http.StatusMethodNotAllowed)
}

// Recovery turns panics into the 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ any) {
		abortWithStatus(c, http.StatusInternalServerError)
	})
}
