package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/services"
	"github.com/cppla/postboard/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// RegisterForm shows the registration page.
func (a *AuthController) RegisterForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// Register creates an account and sends the user to the login page.
func (a *AuthController) Register(ctx *gin.Context) {
	_, err := a.auth.Register(ctx.Request.Context(), ctx.PostForm("username"), ctx.PostForm("password"))
	switch {
	case err == nil:
		redirect(ctx, "/login", utils.FlashSuccess, "Account created. Please log in.")
	case errors.Is(err, services.ErrConflict):
		redirect(ctx, "/register", utils.FlashError, "Username already taken")
	case errors.Is(err, services.ErrUsernameTooLong):
		redirect(ctx, "/register", utils.FlashError, "Username must be at most 80 characters")
	case errors.Is(err, services.ErrPasswordTooLong):
		redirect(ctx, "/register", utils.FlashError, "Password must be at most 72 bytes")
	case errors.Is(err, services.ErrValidation):
		redirect(ctx, "/register", utils.FlashError, "Username and password are required")
	default:
		serverError(ctx, err)
	}
}

// LoginForm shows the login page, keeping the post-login target.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{
		"Title": "Log in",
		"Next":  utils.SafeRedirectTarget(ctx.Query("next"), ""),
	})
}

// Login authenticates the user and redirects to next when it is a local path.
func (a *AuthController) Login(ctx *gin.Context) {
	next := ctx.PostForm("next")
	if next == "" {
		next = ctx.Query("next")
	}
	next = utils.SafeRedirectTarget(next, "")

	user, err := a.auth.Authenticate(ctx.Request.Context(), ctx.PostForm("username"), ctx.PostForm("password"))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAuth):
		back := "/login"
		if next != "" {
			back += "?next=" + url.QueryEscape(next)
		}
		redirect(ctx, back, utils.FlashError, "Invalid username or password")
		return
	default:
		serverError(ctx, err)
		return
	}

	s := middleware.Session(ctx)
	s.Clear()
	s.SetUserID(user.ID)
	redirect(ctx, utils.SafeRedirectTarget(next, "/"), utils.FlashSuccess, "Logged in")
}

// Logout clears the session.
func (a *AuthController) Logout(ctx *gin.Context) {
	middleware.Session(ctx).Clear()
	redirect(ctx, "/", utils.FlashInfo, "Logged out")
}
