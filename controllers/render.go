package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/utils"
)

// render writes page with the current user and pending notices added to data.
func render(ctx *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(ctx); ok {
		data["CurrentUser"] = user
	}
	data["Flashes"] = middleware.Session(ctx).PopFlashes()
	middleware.SaveSession(ctx)
	ctx.HTML(status, page, data)
}

// redirect queues an optional notice, saves the session and sends the client to location.
func redirect(ctx *gin.Context, location, category, message string) {
	if message != "" {
		middleware.Session(ctx).AddFlash(category, message)
	}
	middleware.SaveSession(ctx)
	ctx.Redirect(http.StatusFound, location)
}

// NotFound renders the 404 page.
func NotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Not found",
		"Status":  http.StatusNotFound,
		"Message": "The page you are looking for does not exist.",
	})
}

// serverError logs err and renders the 500 page.
func serverError(ctx *gin.Context, err error) {
	utils.L().Error("request failed",
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
		zap.Error(err),
	)
	render(ctx, http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Server error",
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong. Please try again later.",
	})
}
