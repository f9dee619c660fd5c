package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/services"
	"github.com/cppla/postboard/utils"
)

const (
	// ContextSessionKey stores the request *utils.Session inside Gin context.
	ContextSessionKey = "session"
	// ContextUserKey stores the resolved *models.User inside Gin context.
	ContextUserKey = "current_user"
	contextStoreKey = "session_store"
)

// UserResolver looks a user up by id.
type UserResolver interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
}

// Sessions loads the signed session cookie into the context.
func Sessions(store *utils.SessionStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(contextStoreKey, store)
		ctx.Set(ContextSessionKey, store.Load(ctx.Request))
		ctx.Next()
	}
}

// Session returns the request session. It is never nil.
func Session(ctx *gin.Context) *utils.Session {
	if v, ok := ctx.Get(ContextSessionKey); ok {
		if s, ok := v.(*utils.Session); ok {
			return s
		}
	}
	s := &utils.Session{}
	ctx.Set(ContextSessionKey, s)
	return s
}

// SaveSession writes the session cookie if it changed. It must run before the body is written.
func SaveSession(ctx *gin.Context) {
	s := Session(ctx)
	if !s.Changed() {
		return
	}
	v, ok := ctx.Get(contextStoreKey)
	if !ok {
		return
	}
	if err := v.(*utils.SessionStore).Save(ctx.Writer, s); err != nil {
		utils.L().Error("save session failed", zap.Error(err))
	}
}

// LoadCurrentUser resolves the session user. Unknown or stale ids leave the request anonymous
// and are dropped from the session; other lookup errors only affect the current request.
func LoadCurrentUser(users UserResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s := Session(ctx)
		if s.UserID != 0 {
			user, err := users.ByID(ctx.Request.Context(), s.UserID)
			switch {
			case err == nil:
				ctx.Set(ContextUserKey, user)
			case errors.Is(err, services.ErrNotFound):
				utils.L().Debug("session user no longer exists", zap.Uint("user_id", s.UserID))
				s.SetUserID(0)
			default:
				// Lookup failed; serve this request anonymously but keep the cookie.
				utils.L().Warn("session user lookup failed", zap.Uint("user_id", s.UserID), zap.Error(err))
			}
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// LoginRequired redirects anonymous requests to the login page, carrying the original path.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); ok {
			ctx.Next()
			return
		}
		SaveSession(ctx)
		ctx.Redirect(http.StatusFound, utils.LoginURL(ctx.Request.URL.Path))
		ctx.Abort()
	}
}
