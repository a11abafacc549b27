package router

import (
	"isce/controllers"
	"isce/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Initialize wires all routes and middlewares: public routes, authenticated
// routes (token), admin routes and super admin routes.
func Initialize(r *gin.Engine, logger *zap.Logger) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(Logger(logger))

	// Public (no auth)
	auth := r.Group("/auth")
	auth.POST("/signup", controllers.Signup)
	auth.POST("/signin", controllers.Signin)
	auth.GET("/signout", controllers.Signout)
	auth.POST("/refresh", controllers.Refresh)
	auth.POST("/request-verify-email", controllers.RequestVerifyEmailCode)
	auth.POST("/verify-email", controllers.VerifyEmailCode)
	auth.POST("/send-reset-token", controllers.SendResetToken)
	auth.POST("/reset-password", controllers.ResetPassword)

	// Onboarding de negócio também é público
	r.POST("/business/create", controllers.CreateBusiness)

	// Criação de admin guardada pelo header secret-key
	r.POST("/user/admin/create", controllers.CreateAdmin)

	// Authenticated routes (token + conta não bloqueada)
	logged := r.Group("")
	logged.Use(controllers.AuthRequired())
	logged.Use(Authorizer())

	// Fluxo de vínculo de dispositivo: exige sessão ativa. O código por
	// e-mail prova a posse da caixa de entrada, não substitui o login.
	logged.POST("/device/request-token", controllers.RequestDeviceToken)
	logged.POST("/device/verify-token", controllers.VerifyDeviceToken)

	logged.GET("/user/one/:id", controllers.GetUserById)
	logged.PUT("/user/update", controllers.UpdateUser)
	logged.POST("/user/send-verification-email", controllers.SendVerificationEmail)
	logged.POST("/user/verify-email", controllers.VerifyUserEmail)

	logged.PUT("/business/update", controllers.UpdateBusiness)

	logged.GET("/device/one/:id", controllers.GetDeviceById)
	logged.GET("/device/user/:id", controllers.GetDevicesByUserId)
	logged.PUT("/device/update/:id", controllers.UpdateDevice)

	// Admin routes
	admin := logged.Group("")
	admin.Use(Adminizer())
	admin.GET("/user/all", controllers.GetAllUsers)
	admin.GET("/user/admin/stats", controllers.AdminStats)
	admin.GET("/business/all", controllers.GetAllBusinessUsers)
	admin.GET("/business/one/:id", controllers.GetBusinessUserById)
	admin.POST("/device/create", controllers.CreateDevice)
	admin.GET("/device/all", controllers.GetAllDevices)
	admin.GET("/device/type/:type", controllers.GetDevicesByType)

	// Super admin routes
	super := admin.Group("")
	super.Use(SuperAdminizer())
	super.POST("/user/admin/verify-email", controllers.VerifyAdminEmail)
	super.PUT("/user/admin/block/:id", controllers.BlockAdmin)
	super.PUT("/user/admin/unblock/:id", controllers.UnblockAdmin)
	super.DELETE("/user/admin/:id", controllers.DeleteAdmin)
	super.POST("/device/cleanup-tokens", controllers.CleanupDeviceTokens)
}
