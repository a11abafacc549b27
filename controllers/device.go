package controllers

import (
	"net/http"
	"strconv"
	"time"

	dbpkg "isce/db"
	"isce/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateDeviceRequest struct {
	UserID     string `json:"userId" form:"userId"`
	DeviceType string `json:"deviceType" form:"deviceType"`
	ProductID  string `json:"productId" form:"productId"`
}

type UpdateDeviceRequest struct {
	IsActive  *bool `json:"isActive"`
	IsPrimary *bool `json:"isPrimary"`
}

// CreateDevice provisiona um dispositivo direto, sem o fluxo de token.
// Mesmas regras de productId e de dispositivo primário do verify.
// Rota: POST /device/create (admin)
func CreateDevice(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		RespondError(c, "userId and productId are required", http.StatusBadRequest)
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

	var primaryCount int64
	if err := db.Model(&models.Device{}).
		Where("user_id = ? AND is_primary = ?", user.ID, true).
		Count(&primaryCount).Error; err != nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	device := models.Device{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Type:       req.DeviceType,
		ProductID:  req.ProductID,
		IsPrimary:  primaryCount == 0,
		IsActive:   true,
		AssignedAt: &now,
	}
	if err := db.Create(&device).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondCreated(c, "Device created successfully", device)
}

// GetDeviceById devolve um dispositivo pelo id.
// Rota: GET /device/one/:id (autenticada)
func GetDeviceById(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var device models.Device
	if err := db.Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		RespondError(c, "Device not found", http.StatusNotFound)
		return
	}

	RespondSuccess(c, "Device fetched successfully", device)
}

// GetAllDevices lista dispositivos com meta de paginação no formato
// { total, page, pageSize, totalPages }.
// Rota: GET /device/all (admin)
func GetAllDevices(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.Query("pageSize"))
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}

	query := db.Model(&models.Device{})
	if active := c.Query("isActive"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	query.Count(&total)

	var devices []models.Device
	if err := query.Order("created_at desc").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&devices).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}

	RespondSuccess(c, "Devices fetched successfully", gin.H{
		"devices": devices,
		"meta": gin.H{
			"total":      total,
			"page":       page,
			"pageSize":   pageSize,
			"totalPages": totalPages,
		},
	})
}

// GetDevicesByUserId lista os dispositivos de um usuário.
// Rota: GET /device/user/:id (autenticada)
func GetDevicesByUserId(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var devices []models.Device
	if err := db.Where("user_id = ?", c.Param("id")).
		Order("created_at desc").Find(&devices).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Devices fetched successfully", devices)
}

// GetDevicesByType lista dispositivos de um form factor.
// Rota: GET /device/type/:type (admin)
func GetDevicesByType(c *gin.Context) {
	deviceType := c.Param("type")
	if !models.IsValidDeviceType(deviceType) {
		RespondError(c, "invalid device type", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var devices []models.Device
	if err := db.Where("type = ?", deviceType).
		Order("created_at desc").Find(&devices).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, "Devices fetched successfully", devices)
}

// UpdateDevice ativa/desativa ou troca o primário. Promover um dispositivo a
// primário rebaixa o atual na mesma transação, preservando o índice parcial.
// Rota: PUT /device/update/:id (autenticada, dono ou admin)
func UpdateDevice(c *gin.Context) {
	logged, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateDeviceRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	var device models.Device
	if err := db.Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		RespondError(c, "Device not found", http.StatusNotFound)
		return
	}

	isAdmin := logged.UserType == models.USER_TYPE_ADMIN ||
		logged.UserType == models.USER_TYPE_SUPER_ADMIN
	if device.UserID != logged.ID && !isAdmin {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	tx := db.Begin()
	if req.IsPrimary != nil && *req.IsPrimary && !device.IsPrimary {
		if err := tx.Model(&models.Device{}).
			Where("user_id = ? AND is_primary = ?", device.UserID, true).
			Update("is_primary", false).Error; err != nil {
			tx.Rollback()
			RespondError(c, "internal error", http.StatusInternalServerError)
			return
		}
	}

	updates := map[string]any{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsPrimary != nil {
		updates["is_primary"] = *req.IsPrimary
	}
	if len(updates) == 0 {
		tx.Rollback()
		RespondError(c, "nothing to update", http.StatusBadRequest)
		return
	}
	if err := tx.Model(&models.Device{}).Where("id = ?", device.ID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, "internal error", http.StatusInternalServerError)
		return
	}

	db.Where("id = ?", device.ID).First(&device)
	RespondSuccess(c, "Device updated successfully", device)
}
