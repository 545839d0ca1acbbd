package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happycapy/capy-community-backend/internal/apierr"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/requestdata"
	"github.com/happycapy/capy-community-backend/internal/services"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// UserIDHeader carries the caller's identity. There is no token layer;
// the header value is trusted as-is and validated against the user store.
const UserIDHeader = "X-User-ID"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
	}
}

// Identify resolves the header when present and stashes the user in the
// request context. It never aborts; enforcement belongs to RequireAuth
// and the tier wrappers.
func (am *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUserID := c.GetHeader(UserIDHeader)
		if rawUserID == "" {
			c.Next()
			return
		}
		user, err := am.authService.ResolveUser(c.Request.Context(), rawUserID)
		if err != nil {
			am.log.Debug("Identity resolution failed", "error", err)
			c.Next()
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			UserID: user.ID,
			User:   user,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUserID := c.GetHeader(UserIDHeader)
		user, err := am.authService.ResolveUser(c.Request.Context(), rawUserID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			UserID: user.ID,
			User:   user,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireTier chains onto RequireAuth and admits callers at or above min.
func (am *AuthMiddleware) RequireTier(min types.UserTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		var user *types.User
		if rd != nil {
			user = rd.User
		}
		if err := am.authService.AuthorizeMinTier(user, min); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireCapyAccess chains onto RequireAuth and admits max-tier callers
// with the capy-specific denial message.
func (am *AuthMiddleware) RequireCapyAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		var user *types.User
		if rd != nil {
			user = rd.User
		}
		if err := am.authService.AuthorizeCapyAccess(user); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		c.AbortWithStatusJSON(ae.Status, gin.H{"error": gin.H{"message": ae.Error(), "code": ae.Code}})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "internal error", "code": "internal"}})
}
