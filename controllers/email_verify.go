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

const verifyCodeTTL = 5 * time.Minute

type EmailCodeRequest struct {
	Email string `json:"email" form:"email"`
	Code  string `json:"code" form:"code"`
}

// RequestVerifyEmailCode emite um código de verificação pré-cadastro.
// Um registro por e-mail: pedir de novo substitui o código anterior.
// Rota: POST /auth/request-verify-email
func RequestVerifyEmailCode(c *gin.Context) {
	var req EmailCodeRequest
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

	// Fluxo pré-cadastro: e-mail que já tem conta não pede código por aqui.
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		RespondError(c, "Email already exists", http.StatusBadRequest)
		return
	}

	requestCodeFor(c, email)
}

// VerifyEmailCode confere o código pré-cadastro e marca o e-mail como verificado.
// Rota: POST /auth/verify-email
func VerifyEmailCode(c *gin.Context) {
	var req EmailCodeRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Code == "" {
		RespondError(c, "email and code are required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var record models.EmailVerify
	if err := db.Where("email = ?", email).First(&record).Error; err != nil {
		RespondError(c, "no verification requested for this email", http.StatusNotFound)
		return
	}
	if record.VerifyCode != req.Code {
		RespondError(c, "Invalid verification code", http.StatusBadRequest)
		return
	}
	if record.IsExpired(time.Now()) {
		RespondError(c, "Verification code has expired", http.StatusBadRequest)
		return
	}

	record.IsVerified = true
	if err := db.Save(&record).Error; err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	// Se já existe conta com esse e-mail, propaga a verificação.
	db.Model(&models.User{}).Where("email = ?", email).
		Update("is_email_verified", true)

	RespondSuccess(c, "Email verified successfully", gin.H{"email": email})
}

// SendVerificationEmail reenvia o código para a conta logada.
// Rota: POST /user/send-verification-email (autenticada)
func SendVerificationEmail(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.IsEmailVerified {
		RespondSuccess(c, "Email is already verified", nil)
		return
	}

	// Reaproveita o fluxo público, fixando o e-mail da sessão.
	requestCodeFor(c, user.Email)
}

func requestCodeFor(c *gin.Context, email string) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	code := tools.GenerateVerifyCode()
	expires := time.Now().Add(verifyCodeTTL)

	var record models.EmailVerify
	if err := db.Where("email = ?", email).First(&record).Error; err == nil {
		record.VerifyCode = code
		record.IsVerified = false
		record.ExpiresAt = expires
		if err := db.Save(&record).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	} else {
		record = models.EmailVerify{
			ID:         uuid.New().String(),
			Email:      email,
			VerifyCode: code,
			ExpiresAt:  expires,
		}
		if err := db.Create(&record).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	}

	if err := tools.SendVerifyEmailCode(MailerInstance(c), email, code); err != nil {
		LoggerInstance(c).Error("falha ao enviar código de verificação",
			zap.String("email", email), zap.Error(err))
		RespondError(c, "failed to send verification email", http.StatusBadGateway)
		return
	}

	RespondSuccess(c, "Verification code sent", gin.H{"email": email})
}

// VerifyUserEmail valida o código da conta logada e marca o perfil.
// Rota: POST /user/verify-email (autenticada)
func VerifyUserEmail(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req EmailCodeRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		RespondError(c, "code is required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var record models.EmailVerify
	if err := db.Where("email = ?", user.Email).First(&record).Error; err != nil {
		RespondError(c, "no verification requested for this email", http.StatusNotFound)
		return
	}
	if record.VerifyCode != req.Code {
		RespondError(c, "Invalid verification code", http.StatusBadRequest)
		return
	}
	if record.IsExpired(time.Now()) {
		RespondError(c, "Verification code has expired", http.StatusBadRequest)
		return
	}

	tx := db.Begin()
	record.IsVerified = true
	if err := tx.Save(&record).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_email_verified", true).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Email verified successfully", gin.H{"email": user.Email})
}

// VerifyAdminEmail permite ao super admin pré-aprovar o e-mail de um futuro
// admin, destravando o signup com userType=ADMIN.
// Rota: POST /user/admin/verify-email (super admin)
func VerifyAdminEmail(c *gin.Context) {
	var req EmailCodeRequest
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

	now := time.Now()
	var record models.EmailVerify
	if err := db.Where("email = ?", email).First(&record).Error; err == nil {
		record.IsVerified = true
		record.ExpiresAt = now
		if err := db.Save(&record).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	} else {
		record = models.EmailVerify{
			ID:         uuid.New().String(),
			Email:      email,
			VerifyCode: tools.GenerateVerifyCode(),
			IsVerified: true,
			ExpiresAt:  now,
		}
		if err := db.Create(&record).Error; err != nil {
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	}

	if err := tools.SendAdminCodeEmail(MailerInstance(c), email); err != nil {
		LoggerInstance(c).Warn("falha ao notificar admin aprovado",
			zap.String("email", email), zap.Error(err))
	}

	RespondSuccess(c, "Admin email verified", gin.H{"email": email})
}
