package middleware

import (
	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/identity"
)

const ContextKeyUserID = "user_id"

// RequireIdentity resolves the caller and stores the id for handlers.
// When checker is non-nil an id that matches no user fails with UnknownUser.
func RequireIdentity(resolver identity.Resolver, checker identity.UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolver.Resolve(c.Request)
		if err != nil {
			Fail(c, err)
			return
		}

		if checker != nil {
			exists, err := checker.Exists(c.Request.Context(), userID)
			if err != nil {
				Fail(c, err)
				return
			}
			if !exists {
				Fail(c, apperror.NewUnknownUser(userID))
				return
			}
		}

		c.Set(ContextKeyUserID, userID)
		c.Request = c.Request.WithContext(identity.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// CurrentUserID returns the id set by RequireIdentity
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
