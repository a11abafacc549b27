package controllers

import (
	"net/http"
	"strings"
	"time"

	"isce/config"
	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

type RegisterRequest struct {
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmpassword" form:"confirmpassword"`
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	DisplayPicture  string `json:"displayPicture" form:"displayPicture"`
	Address         string `json:"address" form:"address"`
	Dob             string `json:"dob" form:"dob"`

	BusinessName       string `json:"businessName" form:"businessName"`
	BusinessEmail      string `json:"businessEmail" form:"businessEmail"`
	BusinessAddress    string `json:"businessAddress" form:"businessAddress"`
	Position           string `json:"position" form:"position"`
	IdentificationType string `json:"identificationType" form:"identificationType"`
	IdNumber           string `json:"idNumber" form:"idNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Signup cria a conta conforme o tipo pedido em ?userType= (default USER),
// com o bundle de permissões de cada tipo.
// Rota: POST /auth/signup
func Signup(c *gin.Context) {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	userType := c.Query("userType")
	if userType == "" {
		userType = models.USER_TYPE_USER
	}
	if !models.IsValidUserType(userType) {
		RespondError(c, "invalid user type", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !tools.ValidateEmail(email) {
		RespondError(c, "invalid email", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		RespondError(c, "phone is required", http.StatusBadRequest)
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

	// Conflitos de email/telefone com mensagens distintas.
	var existing models.User
	if err := db.Where("email = ? OR phone = ?", email, req.Phone).First(&existing).Error; err == nil {
		if existing.Email == email {
			RespondError(c, "Email already exists", http.StatusBadRequest)
		} else {
			RespondError(c, "Phone number already exists", http.StatusBadRequest)
		}
		return
	}

	// ADMIN só entra com e-mail pré-verificado pelo super admin.
	if userType == models.USER_TYPE_ADMIN {
		var record models.EmailVerify
		if err := db.Where("email = ?", email).First(&record).Error; err != nil || !record.IsVerified {
			RespondError(c, "Admin email must be verified by Super Admin first.", http.StatusBadRequest)
			return
		}
	}

	if userType == models.USER_TYPE_BUSINESS_USER {
		if req.BusinessName == "" || req.IdentificationType == "" || req.BusinessEmail == "" {
			RespondError(c, "Business users must provide business name, identification type and business email", http.StatusBadRequest)
			return
		}
	}

	hashed, err := tools.HashPassword(req.Password)
	if err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var dob *time.Time
	if req.Dob != "" {
		parsed, err := time.Parse("2006-01-02", req.Dob)
		if err != nil {
			RespondError(c, "invalid date format for dob", http.StatusBadRequest)
			return
		}
		utc := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		dob = &utc
	}

	user := models.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Phone:              req.Phone,
		Password:           hashed,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DisplayPicture:     req.DisplayPicture,
		Address:            req.Address,
		Dob:                dob,
		UserType:           userType,
		BusinessName:       req.BusinessName,
		BusinessEmail:      req.BusinessEmail,
		BusinessAddress:    req.BusinessAddress,
		Position:           req.Position,
		IdentificationType: req.IdentificationType,
		IdNumber:           req.IdNumber,
	}

	switch userType {
	case models.USER_TYPE_SUPER_ADMIN:
		user.FirstName = "Super"
		user.LastName = "Admin"
		user.IdNumber = "SUPER_ADMIN_ID"
	case models.USER_TYPE_BUSINESS_USER:
		user.IsBusinessAdmin = true
	case models.USER_TYPE_ADMIN:
		user.IsEmailVerified = true
	case models.USER_TYPE_EMPLOYEE:
		if user.IdentificationType == "" {
			user.IdentificationType = models.IDENTIFICATION_TYPE_NIN
		}
	}

	iscePerms := models.IscePermissionsForType(userType)
	iscePerms.ID = uuid.New().String()
	bizPerms := models.BusinessPermissionsForType(userType)

	tx := db.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	iscePerms.UserID = user.ID
	if err := tx.Create(&iscePerms).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if bizPerms != nil {
		bizPerms.ID = uuid.New().String()
		bizPerms.UserID = user.ID
		if err := tx.Create(bizPerms).Error; err != nil {
			tx.Rollback()
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	accessToken, _, err := signAccessToken(ConfigInstance(c), user, now)
	if err != nil {
		RespondError(c, "failed to sign token", http.StatusInternalServerError)
		return
	}

	RespondCreated(c, userType+" created successfully", gin.H{
		"accessToken":    accessToken,
		"email":          user.Email,
		"userType":       user.UserType,
		"businessEmail":  user.BusinessEmail,
		"username":       user.FullName(),
		"displayPicture": user.DisplayPicture,
		"permissions": gin.H{
			"isce":     iscePerms,
			"business": bizPerms,
		},
	})
}

// Signin autentica por e-mail/senha e devolve o par access+refresh.
// Também grava o cookie "token" para clientes web.
// Rota: POST /auth/signin
func Signin(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email and password are required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		RespondError(c, "Email does not exists", http.StatusBadRequest)
		return
	}

	if !tools.CheckPasswordHash(req.Password, user.Password) {
		RespondError(c, "Incorrect Password", http.StatusBadRequest)
		return
	}

	if user.IsBlocked {
		RespondError(c, "account is blocked", http.StatusForbidden)
		return
	}

	var iscePerms models.IscePermissions
	var bizPerms models.BusinessPermissions
	db.Where("user_id = ?", user.ID).First(&iscePerms)
	hasBiz := db.Where("user_id = ?", user.ID).First(&bizPerms).Error == nil

	now := time.Now()
	accessToken, _, err := signAccessToken(ConfigInstance(c), user, now)
	if err != nil {
		RespondError(c, "failed to sign token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := issueRefreshToken(db, ConfigInstance(c), user.ID, now)
	if err != nil {
		RespondError(c, "failed to issue refresh token", http.StatusInternalServerError)
		return
	}

	c.SetCookie("token", accessToken, 0, "/", "", false, true)

	var bizOut any
	if hasBiz {
		bizOut = bizPerms
	}

	RespondSuccess(c, "Signed in successfully", gin.H{
		"accessToken":    accessToken,
		"refreshToken":   refreshToken,
		"id":             user.ID,
		"email":          user.Email,
		"userType":       user.UserType,
		"username":       user.FullName(),
		"displayPicture": user.DisplayPicture,
		"permissions": gin.H{
			"isce":     iscePerms,
			"business": bizOut,
		},
	})
}

// Signout limpa o cookie de sessão.
// Rota: GET /auth/signout
func Signout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	RespondSuccess(c, "Logged out successfully", nil)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

// Refresh troca um refresh token válido por um novo par (access+refresh).
// Regras de segurança:
// - Não armazenamos o token em texto no DB (apenas hash)
// - Rotação: ao usar, revogamos todos os tokens ativos do usuário e emitimos um novo
// Rota: POST /auth/refresh
func Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		RespondError(c, "refreshToken is required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	hash := tools.EncryptTextSHA512(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ?", hash).First(&stored).Error; err != nil {
		RespondError(c, "invalid refresh token", http.StatusUnauthorized)
		return
	}
	if stored.IsRevoked() || stored.IsExpired(now) {
		RespondError(c, "refresh token expired", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("id = ?", stored.UserID).First(&user).Error; err != nil {
		RespondError(c, "user not found", http.StatusUnauthorized)
		return
	}
	if user.IsBlocked {
		RespondError(c, "account is blocked", http.StatusForbidden)
		return
	}

	// Sessão única + rotação: revoga todos os refresh tokens ativos deste usuário.
	if err := revokeAllUserRefreshTokens(db, stored.UserID, now); err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	cfg := ConfigInstance(c)
	accessToken, accessExp, err := signAccessToken(cfg, user, now)
	if err != nil {
		RespondError(c, "failed to sign token", http.StatusInternalServerError)
		return
	}

	newRefresh, err := issueRefreshToken(db, cfg, user.ID, now)
	if err != nil {
		RespondError(c, "failed to issue refresh token", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Token refreshed", gin.H{
		"accessToken":     accessToken,
		"accessExpiresAt": accessExp.UTC().Format(time.RFC3339),
		"refreshToken":    newRefresh,
	})
}

// issueRefreshToken gera token opaco, guarda só o hash e devolve o texto puro.
func issueRefreshToken(db *gorm.DB, cfg config.Configuration, userID string, now time.Time) (string, error) {
	raw := tools.RandomString(cfg.Security.RefreshCodeLen)
	exp := now.AddDate(0, 0, cfg.Security.RefreshCodeMaxValid)

	stored := models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: tools.EncryptTextSHA512(raw),
		ExpiresAt: &exp,
	}
	if err := db.Create(&stored).Error; err != nil {
		return "", err
	}
	return raw, nil
}

func revokeAllUserRefreshTokens(db *gorm.DB, userID string, now time.Time) error {
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error
}
