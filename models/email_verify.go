package models

import "time"

// EmailVerify guarda o código de verificação de e-mail do fluxo de cadastro.
// Uma linha por e-mail: pedir um novo código sobrescreve o anterior.
type EmailVerify struct {
	ID         string     `gorm:"primary_key" json:"id"`
	Email      string     `gorm:"not null;unique" json:"email"`
	VerifyCode string     `gorm:"column:verify_code;not null" json:"-"`
	IsVerified bool       `gorm:"default:false" json:"is_verified"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (ev EmailVerify) IsExpired(now time.Time) bool {
	return now.After(ev.ExpiresAt)
}
