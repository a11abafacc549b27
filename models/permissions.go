package models

import "time"

// IscePermissions é o pacote de permissões da plataforma atribuído no signup,
// variando conforme o tipo do usuário.
type IscePermissions struct {
	ID          string     `gorm:"primary_key" json:"id"`
	UserID      string     `gorm:"not null;unique_index" json:"user_id"`
	Connect     bool       `gorm:"default:false" json:"connect"`
	ConnectPlus bool       `gorm:"column:connect_plus;default:false" json:"connect_plus"`
	Store       bool       `gorm:"default:false" json:"store"`
	Wallet      bool       `gorm:"default:false" json:"wallet"`
	Event       bool       `gorm:"default:false" json:"event"`
	Access      bool       `gorm:"default:false" json:"access"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// BusinessPermissions só existe para BUSINESS_USER e EMPLOYEE.
type BusinessPermissions struct {
	ID          string     `gorm:"primary_key" json:"id"`
	UserID      string     `gorm:"not null;unique_index" json:"user_id"`
	Invoicing   bool       `gorm:"default:false" json:"invoicing"`
	Appointment bool       `gorm:"default:false" json:"appointment"`
	Chat        bool       `gorm:"default:false" json:"chat"`
	Analytics   bool       `gorm:"default:false" json:"analytics"`
	Services    bool       `gorm:"default:false" json:"services"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// IscePermissionsForType devolve o bundle padrão de cada tipo de usuário.
func IscePermissionsForType(userType string) IscePermissions {
	switch userType {
	case USER_TYPE_USER:
		return IscePermissions{Connect: true, Event: true}
	case USER_TYPE_BUSINESS_USER:
		return IscePermissions{Connect: true, ConnectPlus: true, Store: true, Wallet: true, Event: true}
	case USER_TYPE_SUPER_ADMIN, USER_TYPE_ADMIN:
		return IscePermissions{Connect: true, ConnectPlus: true, Store: true, Wallet: true, Event: true, Access: userType == USER_TYPE_SUPER_ADMIN || userType == USER_TYPE_ADMIN}
	case USER_TYPE_EMPLOYEE:
		return IscePermissions{Connect: true, Wallet: true}
	}
	return IscePermissions{}
}

// BusinessPermissionsForType devolve o bundle de negócio, ou nil para tipos
// que não recebem um.
func BusinessPermissionsForType(userType string) *BusinessPermissions {
	switch userType {
	case USER_TYPE_BUSINESS_USER:
		return &BusinessPermissions{Invoicing: true, Appointment: true, Chat: true, Analytics: true, Services: true}
	case USER_TYPE_EMPLOYEE:
		return &BusinessPermissions{Appointment: true, Chat: true, Services: true}
	}
	return nil
}
