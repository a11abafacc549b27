package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateAdmin cria uma conta ADMIN mediante o header secret-key.
// Diferente do signup público, aqui não exige e-mail pré-verificado:
// quem tem a chave já é confiável.
// Rota: POST /user/admin/create
func CreateAdmin(c *gin.Context) {
	cfg := ConfigInstance(c)
	if cfg.Security.AdminSecretKey == "" ||
		c.GetHeader("secret-key") != cfg.Security.AdminSecretKey {
		RespondError(c, "invalid secret key", http.StatusUnauthorized)
		return
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !tools.ValidateEmail(email) {
		RespondError(c, "invalid email", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.Password) != "" {
		RespondError(c, "password must have at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Password != req.ConfirmPassword {
		RespondError(c, "Passwords do not match.", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		RespondError(c, "Email already exists", http.StatusBadRequest)
		return
	}

	hashed, err := tools.HashPassword(req.Password)
	if err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	admin := models.User{
		ID:              uuid.New().String(),
		Email:           email,
		Phone:           req.Phone,
		Password:        hashed,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		UserType:        models.USER_TYPE_ADMIN,
		IsEmailVerified: true,
	}

	perms := models.IscePermissionsForType(models.USER_TYPE_ADMIN)
	perms.ID = uuid.New().String()

	tx := db.Begin()
	if err := tx.Create(&admin).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	perms.UserID = admin.ID
	if err := tx.Create(&perms).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondCreated(c, "Admin created successfully", gin.H{
		"id":       admin.ID,
		"email":    admin.Email,
		"userType": admin.UserType,
	})
}

// AdminStats devolve os contadores agregados do painel.
// Rota: GET /user/admin/stats (admin)
func AdminStats(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var totalUsers, totalBusiness, totalAdmins, blocked int64
	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&models.User{}).Where("user_type = ?", models.USER_TYPE_BUSINESS_USER).Count(&totalBusiness)
	db.Model(&models.User{}).Where("user_type IN (?)",
		[]string{models.USER_TYPE_ADMIN, models.USER_TYPE_SUPER_ADMIN}).Count(&totalAdmins)
	db.Model(&models.User{}).Where("is_blocked = ?", true).Count(&blocked)

	var totalDevices, activeDevices int64
	db.Model(&models.Device{}).Count(&totalDevices)
	db.Model(&models.Device{}).Where("is_active = ?", true).Count(&activeDevices)

	var pendingTokens int64
	db.Model(&models.Token{}).
		Where("used = ? AND expires_at > ?", false, time.Now()).
		Count(&pendingTokens)

	RespondSuccess(c, "Stats fetched successfully", gin.H{
		"totalUsers":          totalUsers,
		"totalBusinessUsers":  totalBusiness,
		"totalAdmins":         totalAdmins,
		"blockedUsers":        blocked,
		"totalDevices":        totalDevices,
		"activeDevices":       activeDevices,
		"pendingDeviceTokens": pendingTokens,
	})
}

// setBlocked é o miolo compartilhado de block/unblock.
func setBlocked(c *gin.Context, blocked bool) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	id := c.Param("id")

	var target models.User
	if err := db.Where("id = ?", id).First(&target).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}
	if target.UserType == models.USER_TYPE_SUPER_ADMIN {
		RespondError(c, "cannot block a super admin", http.StatusForbidden)
		return
	}

	tx := db.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
		Update("is_blocked", blocked).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if blocked {
		// Bloqueio derruba as sessões ativas.
		if err := revokeAllUserRefreshTokens(tx, target.ID, time.Now()); err != nil {
			tx.Rollback()
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	msg := "User unblocked successfully"
	if blocked {
		msg = "User blocked successfully"
	}
	RespondSuccess(c, msg, gin.H{"id": target.ID, "isBlocked": blocked})
}

// BlockAdmin bloqueia qualquer conta que não seja super admin.
// Rota: PUT /user/admin/block/:id (super admin)
func BlockAdmin(c *gin.Context) {
	setBlocked(c, true)
}

// UnblockAdmin reativa uma conta bloqueada.
// Rota: PUT /user/admin/unblock/:id (super admin)
func UnblockAdmin(c *gin.Context) {
	setBlocked(c, false)
}

// DeleteAdmin remove uma conta ADMIN e seus registros dependentes.
// Rota: DELETE /user/admin/:id (super admin)
func DeleteAdmin(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	id := c.Param("id")

	var target models.User
	if err := db.Where("id = ?", id).First(&target).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}
	if target.UserType != models.USER_TYPE_ADMIN {
		RespondError(c, "user is not an admin", http.StatusBadRequest)
		return
	}

	tx := db.Begin()
	if err := tx.Where("user_id = ?", target.ID).Delete(&models.IscePermissions{}).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("user_id = ?", target.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("email = ?", target.Email).Delete(&models.EmailVerify{}).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&target).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Admin deleted successfully", gin.H{"id": target.ID})
}
