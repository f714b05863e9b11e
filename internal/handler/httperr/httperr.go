// Package httperr defines the JSON error envelope shared by all handlers.
package httperr

import "github.com/gin-gonic/gin"

// Response is the error payload rendered to clients. Status travels with
// it through the gin error stack but is never serialized itself.
type Response struct {
	Status int       `json:"-"`
	Error  ErrorBody `json:"error"`
	Detail any       `json:"detail,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

// AbortWithError renders the public envelope and records the underlying
// error on the context so the logging middleware can see the real cause.
// The caller decides which message is safe to expose; err must be non-nil.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("httperr: AbortWithError called with a nil error")
	}

	resp := Response{
		Status: status,
		Error:  ErrorBody{Message: msg},
		Detail: detail,
	}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
