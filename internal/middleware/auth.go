package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

const (
	userKey     = "user"
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// AuthMiddleware validates the bearer token and loads the user on every
// request, so blocks and deletions apply to tokens already issued.
func AuthMiddleware(tokens *utils.TokenIssuer, users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			Abort(c, NewError(http.StatusUnauthorized, "Not authorized, no token"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			Abort(c, Wrap(http.StatusUnauthorized, "Not authorized, token failed", err))
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			Abort(c, Wrap(http.StatusUnauthorized, "Not authorized, token failed", err))
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			Abort(c, NewError(http.StatusUnauthorized, "Not authorized, user no longer exists"))
			return
		}
		if err != nil {
			Abort(c, err)
			return
		}
		if user.IsBlocked {
			Abort(c, BlockedError(user.BlockReason))
			return
		}

		// Set user info in the context for handlers to use
		c.Set(userKey, user)
		c.Set(userIDKey, user.ID.Hex())
		c.Set(userRoleKey, string(user.Role))

		c.Next()
	}
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*models.User)
	return user
}

// RequireRole rejects users whose role is not listed.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Abort(c, NewError(http.StatusUnauthorized, "Not authorized"))
			return
		}
		if !slices.Contains(roles, user.Role) {
			Abort(c, NewError(http.StatusForbidden, "Not authorized for this action"))
			return
		}
		c.Next()
	}
}
