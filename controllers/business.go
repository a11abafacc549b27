package controllers

import (
	"net/http"
	"strings"

	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BusinessRequest struct {
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmpassword" form:"confirmpassword"`
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`

	BusinessName       string `json:"businessName" form:"businessName"`
	BusinessEmail      string `json:"businessEmail" form:"businessEmail"`
	BusinessAddress    string `json:"businessAddress" form:"businessAddress"`
	Position           string `json:"position" form:"position"`
	IdentificationType string `json:"identificationType" form:"identificationType"`
	IdNumber           string `json:"idNumber" form:"idNumber"`
}

type UpdateBusinessRequest struct {
	BusinessName    *string `json:"businessName"`
	BusinessEmail   *string `json:"businessEmail"`
	BusinessAddress *string `json:"businessAddress"`
	Position        *string `json:"position"`
}

// CreateBusiness faz o onboarding de um BUSINESS_USER. Conflita com qualquer
// cadastro prévio de email, telefone, idNumber ou nome do negócio.
// Rota: POST /business/create
func CreateBusiness(c *gin.Context) {
	var req BusinessRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !tools.ValidateEmail(email) {
		RespondError(c, "invalid email", http.StatusBadRequest)
		return
	}
	if req.BusinessName == "" || req.IdentificationType == "" || req.BusinessEmail == "" {
		RespondError(c, "Business users must provide business name, identification type and business email", http.StatusBadRequest)
		return
	}
	if !models.IsValidIdentificationType(req.IdentificationType) {
		RespondError(c, "invalid identification type", http.StatusBadRequest)
		return
	}
	if req.IdNumber == "" {
		RespondError(c, "idNumber is required", http.StatusBadRequest)
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
	if err := db.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		RespondError(c, "Phone number already exists", http.StatusBadRequest)
		return
	}
	if err := db.Where("id_number = ?", req.IdNumber).First(&existing).Error; err == nil {
		RespondError(c, "Identification number already registered", http.StatusBadRequest)
		return
	}
	if err := db.Where("business_name = ?", req.BusinessName).First(&existing).Error; err == nil {
		RespondError(c, "Business name already registered", http.StatusBadRequest)
		return
	}

	hashed, err := tools.HashPassword(req.Password)
	if err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Phone:              req.Phone,
		Password:           hashed,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		UserType:           models.USER_TYPE_BUSINESS_USER,
		BusinessName:       req.BusinessName,
		BusinessEmail:      strings.ToLower(strings.TrimSpace(req.BusinessEmail)),
		BusinessAddress:    req.BusinessAddress,
		Position:           req.Position,
		IdentificationType: req.IdentificationType,
		IdNumber:           req.IdNumber,
		IsBusinessAdmin:    true,
	}

	iscePerms := models.IscePermissionsForType(models.USER_TYPE_BUSINESS_USER)
	iscePerms.ID = uuid.New().String()
	bizPerms := models.BusinessPermissionsForType(models.USER_TYPE_BUSINESS_USER)
	bizPerms.ID = uuid.New().String()

	tx := db.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	iscePerms.UserID = user.ID
	bizPerms.UserID = user.ID
	if err := tx.Create(&iscePerms).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Create(bizPerms).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondCreated(c, "Business user created successfully", gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"businessName": user.BusinessName,
		"userType":     user.UserType,
		"permissions": gin.H{
			"isce":     iscePerms,
			"business": bizPerms,
		},
	})
}

// UpdateBusiness altera os dados do negócio da conta logada.
// Rota: PUT /business/update (business admin)
func UpdateBusiness(c *gin.Context) {
	logged, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	if logged.UserType != models.USER_TYPE_BUSINESS_USER || !logged.IsBusinessAdmin {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	var req UpdateBusinessRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	updates := map[string]any{}
	if req.BusinessName != nil {
		var other models.User
		if err := db.Where("business_name = ? AND id <> ?", *req.BusinessName, logged.ID).
			First(&other).Error; err == nil {
			RespondError(c, "Business name already registered", http.StatusBadRequest)
			return
		}
		updates["business_name"] = *req.BusinessName
	}
	if req.BusinessEmail != nil {
		updates["business_email"] = strings.ToLower(strings.TrimSpace(*req.BusinessEmail))
	}
	if req.BusinessAddress != nil {
		updates["business_address"] = *req.BusinessAddress
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if len(updates) == 0 {
		RespondError(c, "nothing to update", http.StatusBadRequest)
		return
	}

	if err := db.Model(&models.User{}).Where("id = ?", logged.ID).
		Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var user models.User
	db.Where("id = ?", logged.ID).First(&user)
	RespondSuccess(c, "Business updated successfully", user)
}

// GetAllBusinessUsers lista as contas BUSINESS_USER.
// Rota: GET /business/all (admin)
func GetAllBusinessUsers(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	limit, offset := pagination(c)

	query := db.Model(&models.User{}).
		Where("user_type = ?", models.USER_TYPE_BUSINESS_USER)

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Business users fetched successfully", gin.H{
		"users": users,
		"total": total,
	})
}

// GetBusinessUserById devolve uma conta de negócio com as permissões.
// Rota: GET /business/one/:id (admin)
func GetBusinessUserById(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Where("id = ? AND user_type = ?",
		c.Param("id"), models.USER_TYPE_BUSINESS_USER).First(&user).Error; err != nil {
		RespondError(c, "Business user not found", http.StatusNotFound)
		return
	}

	var bizPerms models.BusinessPermissions
	if db.Where("user_id = ?", user.ID).First(&bizPerms).Error == nil {
		user.BusinessPermissions = &bizPerms
	}

	RespondSuccess(c, "Business user fetched successfully", user)
}
