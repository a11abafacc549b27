package controllers

import (
	"errors"
	"net/http"
	"time"

	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// maxTokenAttempts limita o retry em caso de colisão. Com ~31 bits de
// entropia, colidir 10 vezes seguidas indica problema sistêmico, não azar.
const maxTokenAttempts = 10

const deviceTokenTTL = 30 * time.Minute

type RequestTokenRequest struct {
	Email      string `json:"email" form:"email"`
	UserID     string `json:"userId" form:"userId"`
	DeviceType string `json:"deviceType" form:"deviceType"`
	ProductID  string `json:"productId" form:"productId"`
}

type VerifyTokenRequest struct {
	Token  string `json:"token" form:"token"`
	UserID string `json:"userId" form:"userId"`
}

// generateUniqueDeviceToken sorteia códigos de 6 caracteres [A-Z0-9] até
// achar um inédito na tabela inteira (a unicidade é permanente, vale também
// contra tokens já usados).
func generateUniqueDeviceToken(db *gorm.DB) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		candidate := tools.GenerateDeviceToken()

		var count int64
		if err := db.Model(&models.Token{}).
			Where("token = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate a unique token")
}

// invalidateActiveTokens marca como usados todos os tokens ainda válidos do
// e-mail, garantindo no máximo um token vivo por destinatário.
func invalidateActiveTokens(db *gorm.DB, email string, now time.Time) error {
	return db.Model(&models.Token{}).
		Where("assigned_to = ? AND used = ?", email, false).
		Updates(map[string]any{"used": true, "used_at": &now}).Error
}

// RequestDeviceToken emite o código de vínculo de dispositivo e o envia por
// e-mail. O código nunca aparece na resposta: a posse da caixa de entrada é
// justamente o que o fluxo prova.
// Rota: POST /device/request-token (autenticado)
func RequestDeviceToken(c *gin.Context) {
	var req RequestTokenRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.UserID == "" || req.ProductID == "" {
		RespondError(c, "email, userId and productId are required", http.StatusBadRequest)
		return
	}
	if !models.IsValidDeviceType(req.DeviceType) {
		RespondError(c, "invalid device type", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}

	var claimed models.Device
	if err := db.Where("product_id = ?", req.ProductID).First(&claimed).Error; err == nil {
		RespondError(c, "device already claimed", http.StatusBadRequest)
		return
	}

	now := time.Now()

	// Passo sem vínculo transacional com a criação: precisa completar antes,
	// mas requests concorrentes para o mesmo e-mail podem ambos passar.
	if err := invalidateActiveTokens(db, req.Email, now); err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	value, err := generateUniqueDeviceToken(db)
	if err != nil {
		LoggerInstance(c).Error("geração de token esgotou as tentativas", zap.Error(err))
		RespondError(c, "could not generate token", http.StatusInternalServerError)
		return
	}

	expires := now.Add(deviceTokenTTL)
	token := models.Token{
		ID:         uuid.New().String(),
		Token:      value,
		AssignedTo: req.Email,
		UserID:     req.UserID,
		DeviceType: req.DeviceType,
		ProductID:  req.ProductID,
		ExpiresAt:  &expires,
	}
	if err := db.Create(&token).Error; err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	// Falha de e-mail vira falha do request. A linha fica: estado
	// "enviado-mas-talvez-não-entregue", sem rollback automático.
	if err := tools.SendDeviceVerificationToken(MailerInstance(c), req.Email, user.FullName(), value); err != nil {
		LoggerInstance(c).Error("falha ao enviar token de dispositivo",
			zap.String("email", req.Email), zap.Error(err))
		RespondError(c, "failed to send token email", http.StatusBadGateway)
		return
	}

	RespondSuccess(c, "Token sent to email", gin.H{
		"tokenId":   token.ID,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

// VerifyDeviceToken consome o código e cria o vínculo usuário-dispositivo.
// A ordem dos checks importa: replay de token usado-e-expirado tem que
// responder "already used", não "expired".
// Rota: POST /device/verify-token (autenticado)
func VerifyDeviceToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Token == "" || req.UserID == "" {
		RespondError(c, "token and userId are required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now()

	var token models.Token
	if err := db.Where("token = ?", req.Token).First(&token).Error; err != nil {
		RespondError(c, "Invalid token", http.StatusBadRequest)
		return
	}
	if token.Used {
		RespondError(c, "Token already used", http.StatusBadRequest)
		return
	}
	if token.IsExpired(now) {
		RespondError(c, "Token expired", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}

	// Igualdade exata, sensível a caixa, contra o valor gravado na emissão.
	if user.Email != token.AssignedTo {
		RespondError(c, "Token was not issued to this user", http.StatusUnauthorized)
		return
	}

	// Re-checa o productId: outro dispositivo pode ter reivindicado o UID
	// na janela entre request e verify.
	var claimed models.Device
	if err := db.Where("product_id = ?", token.ProductID).First(&claimed).Error; err == nil {
		RespondError(c, "device already claimed", http.StatusBadRequest)
		return
	}

	// O vínculo nasce no usuário informado na emissão do token, não em quem
	// chamou o verify. A contagem de primário segue o mesmo dono.
	var primaryCount int64
	if err := db.Model(&models.Device{}).
		Where("user_id = ? AND is_primary = ?", token.UserID, true).
		Count(&primaryCount).Error; err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	device := models.Device{
		ID:         uuid.New().String(),
		UserID:     token.UserID,
		Type:       token.DeviceType,
		ProductID:  token.ProductID,
		IsPrimary:  primaryCount == 0,
		IsActive:   true,
		AssignedAt: &now,
	}

	// Criação do device e consumo do token na mesma transação: sem isso,
	// um verify duplicado na janela entre os dois writes criaria um segundo
	// dispositivo com o mesmo token.
	tx := db.Begin()
	if err := tx.Create(&device).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Model(&models.Token{}).Where("id = ?", token.ID).
		Updates(map[string]any{
			"used":      true,
			"used_at":   &now,
			"device_id": device.ID,
		}).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Device verified successfully", gin.H{
		"device":     device,
		"tokenId":    token.ID,
		"verifiedAt": now.UTC().Format(time.RFC3339),
	})
}

// CleanupExpiredDeviceTokens apaga os tokens expirados e nunca usados.
// Purge definitivo, idempotente, seguro em qualquer cadência.
func CleanupExpiredDeviceTokens(db *gorm.DB) (int64, error) {
	result := db.Where("used = ? AND expires_at < ?", false, time.Now()).
		Delete(&models.Token{})
	return result.RowsAffected, result.Error
}

// CleanupDeviceTokens dispara a limpeza manualmente.
// Rota: POST /device/cleanup-tokens (super admin)
func CleanupDeviceTokens(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	deleted, err := CleanupExpiredDeviceTokens(db)
	if err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	LoggerInstance(c).Info("limpeza de tokens executada", zap.Int64("deleted", deleted))
	RespondSuccess(c, "Expired tokens cleaned up", gin.H{"deleted": deleted})
}
