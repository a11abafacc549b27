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
	"go.uber.org/zap"
)

const resetCodeTTL = 15 * time.Minute

type ResetTokenRequest struct {
	Email string `json:"email" form:"email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" form:"email"`
	Code            string `json:"code" form:"code"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmpassword" form:"confirmpassword"`
}

// SendResetToken envia um código de 6 dígitos para redefinição de senha.
// Um registro por usuário: pedir de novo invalida o código anterior.
// Rota: POST /auth/send-reset-token
func SendResetToken(c *gin.Context) {
	var req ResetTokenRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !tools.ValidateEmail(email) {
		RespondError(c, "invalid email", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}

	code := tools.RandomNumbers(6)
	expires := time.Now().Add(resetCodeTTL)

	var reset models.PasswordReset
	if err := db.Where("user_id = ?", user.ID).First(&reset).Error; err == nil {
		reset.CodeHash = tools.EncryptTextSHA512(code)
		reset.ExpiresAt = expires
		if err := db.Save(&reset).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	} else {
		reset = models.PasswordReset{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			CodeHash:  tools.EncryptTextSHA512(code),
			ExpiresAt: expires,
		}
		if err := db.Create(&reset).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	}

	if err := tools.SendResetPasswordEmail(MailerInstance(c), email, user.FullName(), code); err != nil {
		LoggerInstance(c).Error("falha ao enviar código de reset",
			zap.String("email", email), zap.Error(err))
		RespondError(c, "failed to send reset email", http.StatusBadGateway)
		return
	}

	RespondSuccess(c, "Reset code sent", gin.H{"email": email})
}

// ResetPassword valida o código, troca a senha e derruba as sessões ativas.
// Rota: POST /auth/reset-password
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Code == "" {
		RespondError(c, "email and code are required", http.StatusBadRequest)
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

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}

	now := time.Now()

	var reset models.PasswordReset
	if err := db.Where("user_id = ? AND code_hash = ?",
		user.ID, tools.EncryptTextSHA512(req.Code)).First(&reset).Error; err != nil {
		RespondError(c, "Invalid reset code", http.StatusBadRequest)
		return
	}
	if reset.IsExpired(now) {
		RespondError(c, "Reset code has expired", http.StatusBadRequest)
		return
	}

	hashed, err := tools.HashPassword(req.Password)
	if err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	tx := db.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password", hashed).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&reset).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	// Sessões antigas caem junto com a senha antiga.
	if err := revokeAllUserRefreshTokens(tx, user.ID, now); err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Password reset successfully", nil)
}
