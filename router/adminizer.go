package router

import (
	"net/http"

	"isce/controllers"
	"isce/models"

	"github.com/gin-gonic/gin"
)

// Adminizer blocks access when user is not ADMIN nor SUPER_ADMIN.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if user.UserType != models.USER_TYPE_ADMIN &&
			user.UserType != models.USER_TYPE_SUPER_ADMIN {
			controllers.RespondError(c, "admin required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SuperAdminizer blocks access when user is not SUPER_ADMIN.
func SuperAdminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if user.UserType != models.USER_TYPE_SUPER_ADMIN {
			controllers.RespondError(c, "super admin required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
