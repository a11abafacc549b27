package controllers

import (
	"net/http"
	"strconv"
	"time"

	dbpkg "isce/db"
	"isce/models"

	"github.com/gin-gonic/gin"
)

type UpdateUserRequest struct {
	Phone          *string `json:"phone"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	DisplayPicture *string `json:"displayPicture"`
	Address        *string `json:"address"`
	Dob            *string `json:"dob"`
}

// pagination lê ?limit= e ?offset= com os defaults da API (10 / 0).
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetAllUsers lista usuários, com filtro opcional ?userType=.
// Rota: GET /user/all (admin)
func GetAllUsers(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	limit, offset := pagination(c)

	query := db.Model(&models.User{})
	if t := c.Query("userType"); t != "" {
		if !models.IsValidUserType(t) {
			RespondError(c, "invalid user type", http.StatusBadRequest)
			return
		}
		query = query.Where("user_type = ?", t)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Users fetched successfully", gin.H{
		"users": users,
		"total": total,
	})
}

// GetUserById devolve o perfil com os bundles de permissão.
// Rota: GET /user/one/:id (autenticada)
func GetUserById(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	id := c.Param("id")

	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		RespondError(c, "User not found", http.StatusNotFound)
		return
	}

	var iscePerms models.IscePermissions
	if db.Where("user_id = ?", user.ID).First(&iscePerms).Error == nil {
		user.IscePermissions = &iscePerms
	}
	var bizPerms models.BusinessPermissions
	if db.Where("user_id = ?", user.ID).First(&bizPerms).Error == nil {
		user.BusinessPermissions = &bizPerms
	}

	RespondSuccess(c, "User fetched successfully", user)
}

// UpdateUser altera os campos mutáveis do próprio perfil. E-mail, senha e
// userType têm fluxos próprios e ficam de fora.
// Rota: PUT /user/update (autenticada)
func UpdateUser(c *gin.Context) {
	logged, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateUserRequest
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
	if req.Phone != nil {
		var other models.User
		if err := db.Where("phone = ? AND id <> ?", *req.Phone, logged.ID).
			First(&other).Error; err == nil {
			RespondError(c, "Phone number already exists", http.StatusBadRequest)
			return
		}
		updates["phone"] = *req.Phone
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.DisplayPicture != nil {
		updates["display_picture"] = *req.DisplayPicture
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Dob != nil {
		parsed, err := time.Parse("2006-01-02", *req.Dob)
		if err != nil {
			RespondError(c, "invalid date format for dob", http.StatusBadRequest)
			return
		}
		updates["dob"] = parsed.UTC()
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
	RespondSuccess(c, "User updated successfully", user)
}
