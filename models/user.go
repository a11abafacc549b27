package models

import (
	"isce/tools"
	"time"
)

/************************************************
/**** MARK: USER TYPES ****/
/************************************************/
const USER_TYPE_USER = "USER"
const USER_TYPE_BUSINESS_USER = "BUSINESS_USER"
const USER_TYPE_ADMIN = "ADMIN"
const USER_TYPE_SUPER_ADMIN = "SUPER_ADMIN"
const USER_TYPE_EMPLOYEE = "EMPLOYEE"

/************************************************
/**** MARK: IDENTIFICATION TYPES ****/
/************************************************/
const IDENTIFICATION_TYPE_NIN = "NIN"
const IDENTIFICATION_TYPE_PASSPORT = "PASSPORT"
const IDENTIFICATION_TYPE_DRIVERS_LICENSE = "DRIVERS_LICENSE"

// User representa uma conta na plataforma ISCE (consumidor, negócio ou admin).
// O mesmo registro serve todos os tipos; campos de negócio ficam vazios para
// usuários comuns.
type User struct {
	ID              string     `gorm:"primary_key" json:"id"`
	Email           string     `gorm:"not null;unique" json:"email" form:"email"`
	Phone           string     `gorm:"not null" json:"phone" form:"phone"`
	Password        string     `gorm:"not null" json:"-" form:"password"`
	FirstName       string     `gorm:"column:first_name" json:"first_name" form:"first_name"`
	LastName        string     `gorm:"column:last_name" json:"last_name" form:"last_name"`
	DisplayPicture  string     `gorm:"column:display_picture" json:"display_picture" form:"display_picture"`
	Address         string     `json:"address" form:"address"`
	Dob             *time.Time `json:"dob" form:"dob"`
	UserType        string     `gorm:"not null;default:'USER'" json:"user_type"`
	IsEmailVerified bool       `gorm:"default:false" json:"is_email_verified"`
	IsBlocked       bool       `gorm:"default:false" json:"is_blocked"`

	// Campos de negócio (BUSINESS_USER / EMPLOYEE)
	BusinessName       string `gorm:"column:business_name" json:"business_name" form:"business_name"`
	BusinessEmail      string `gorm:"column:business_email" json:"business_email" form:"business_email"`
	BusinessAddress    string `gorm:"column:business_address" json:"business_address" form:"business_address"`
	Position           string `json:"position" form:"position"`
	IdentificationType string `gorm:"column:identification_type" json:"identification_type" form:"identification_type"`
	IdNumber           string `gorm:"column:id_number" json:"id_number" form:"id_number"`
	IsBusinessAdmin    bool   `gorm:"default:false" json:"is_business_admin"`

	IscePermissions     *IscePermissions     `json:"isce_permissions,omitempty" gorm:"foreignkey:UserID"`
	BusinessPermissions *BusinessPermissions `json:"business_permissions,omitempty" gorm:"foreignkey:UserID"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (user User) MissingFields() string {
	if user.Email == "" {
		return "email"
	} else if user.Phone == "" {
		return "phone"
	} else if user.Password == "" {
		return "password"
	} else if tools.CheckPassword(user.Password) != "" {
		return tools.CheckPassword(user.Password)
	}
	return ""
}

// FullName monta o nome exibido nas respostas ("User" quando vazio).
func (user User) FullName() string {
	name := user.FirstName
	if user.LastName != "" {
		if name != "" {
			name += " "
		}
		name += user.LastName
	}
	if name == "" {
		return "User"
	}
	return name
}

func IsValidUserType(userType string) bool {
	switch userType {
	case USER_TYPE_USER, USER_TYPE_BUSINESS_USER, USER_TYPE_ADMIN,
		USER_TYPE_SUPER_ADMIN, USER_TYPE_EMPLOYEE:
		return true
	}
	return false
}

func IsValidIdentificationType(idType string) bool {
	switch idType {
	case IDENTIFICATION_TYPE_NIN, IDENTIFICATION_TYPE_PASSPORT,
		IDENTIFICATION_TYPE_DRIVERS_LICENSE:
		return true
	}
	return false
}
