package models

import "time"

/************************************************
/**** MARK: DEVICE TYPES  ****/
/************************************************/
// Códigos opacos herdados do provisionamento de hardware: cartão NFC,
// pulseira e adesivo.
const DEVICE_TYPE_CARD = "6214bdef7dbcb"
const DEVICE_TYPE_WRISTBAND = "6214bdef6dbcb"
const DEVICE_TYPE_STICKER = "6214bdef5dbcb"

// Device é um acessório físico vinculado a exatamente um usuário,
// identificado globalmente pelo ProductID (UID do chip NFC).
type Device struct {
	ID         string     `gorm:"primary_key" json:"id"`
	UserID     string     `gorm:"not null;index" json:"user_id"`
	Type       string     `gorm:"not null" json:"type"`
	ProductID  string     `gorm:"column:product_id;not null;unique" json:"product_id"`
	IsPrimary  bool       `gorm:"default:false" json:"is_primary"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	AssignedAt *time.Time `json:"assigned_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func IsValidDeviceType(deviceType string) bool {
	switch deviceType {
	case DEVICE_TYPE_CARD, DEVICE_TYPE_WRISTBAND, DEVICE_TYPE_STICKER:
		return true
	}
	return false
}
