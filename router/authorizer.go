package router

import (
	"net/http"

	"isce/controllers"

	"github.com/gin-gonic/gin"
)

// Authorizer blocks access to protected routes when the account is blocked.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		if user.IsBlocked {
			controllers.RespondError(c, "account is blocked", http.StatusForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
