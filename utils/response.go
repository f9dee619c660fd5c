package utils

import "github.com/gin-gonic/gin"

// JSONResponse is the error envelope for clients that accept JSON.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Fail aborts the request with status, answering JSON or plain text depending on Accept.
func Fail(ctx *gin.Context, status int, message string) {
	if ctx.NegotiateFormat(gin.MIMEPlain, gin.MIMEJSON) == gin.MIMEJSON {
		ctx.AbortWithStatusJSON(status, JSONResponse{Code: status, Message: message})
		return
	}
	ctx.String(status, message)
	ctx.Abort()
}
