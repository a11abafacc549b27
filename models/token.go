package models

import "time"

// Token é o código de verificação de dispositivo: 6 caracteres [A-Z0-9],
// uso único, 30 minutos de validade, enviado por e-mail. O valor nunca sai
// na resposta HTTP, só pelo canal de e-mail.
type Token struct {
	ID         string     `gorm:"primary_key" json:"id"`
	Token      string     `gorm:"not null;unique" json:"-"`
	AssignedTo string     `gorm:"column:assigned_to;not null;index" json:"assigned_to"`
	UserID     string     `gorm:"not null" json:"user_id"`
	DeviceType string     `gorm:"column:device_type;not null" json:"device_type"`
	ProductID  string     `gorm:"column:product_id;not null" json:"product_id"`
	Used       bool       `gorm:"default:false" json:"used"`
	UsedAt     *time.Time `json:"used_at"`
	ExpiresAt  *time.Time `gorm:"not null" json:"expires_at"`
	DeviceID   *string    `gorm:"column:device_id" json:"device_id"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (t Token) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}
