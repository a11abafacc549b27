package models

import "time"

// PasswordReset representa um código temporário do fluxo "Esqueci minha senha".
// Guardamos apenas o HASH do código (nunca o código em texto puro).
// Uma linha por usuário: pedir de novo substitui a anterior.
type PasswordReset struct {
	ID        string     `gorm:"primary_key" json:"id"`
	UserID    string     `gorm:"not null;unique_index" json:"user_id"`
	CodeHash  string     `gorm:"column:code_hash;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (pr PasswordReset) IsExpired(now time.Time) bool {
	return now.After(pr.ExpiresAt)
}
