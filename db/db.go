package db

import (
	"log"
	"time"

	"isce/config"
	"isce/models"
	"isce/tools"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		log.Println("Utilizando conexão com o postgresql...")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		log.Println("Utilizando conexão com o sqlite3...")
		db, err = gorm.Open("sqlite3", "db/database.db")
	}

	if err != nil {
		log.Println("Got error when connect database, the error is: " + err.Error())
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate roda o automigrate e os índices que o gorm antigo não expressa
// por tag.
func Migrate(db *gorm.DB) error {
	db.AutoMigrate(
		&models.User{},
		&models.IscePermissions{},
		&models.BusinessPermissions{},
		&models.EmailVerify{},
		&models.PasswordReset{},
		&models.RefreshToken{},
		&models.Device{},
		&models.Token{},
	)

	// Índice único parcial: no máximo UM dispositivo primário por usuário.
	// Postgres e sqlite aceitam a mesma sintaxe.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_devices_one_primary
		 ON devices (user_id) WHERE is_primary`,
	).Error; err != nil {
		return err
	}

	return db.Error
}

// SeedSuperAdmin garante a conta de super admin da instalação.
func SeedSuperAdmin(db *gorm.DB) error {
	const superAdminEmail = "superadmin@isce.com"

	var existing models.User
	if err := db.Where("email = ?", superAdminEmail).First(&existing).Error; err == nil {
		return nil
	}

	hashed, err := tools.HashPassword("SuperAdmin123!")
	if err != nil {
		return err
	}

	user := models.User{
		ID:                 uuid.New().String(),
		Email:              superAdminEmail,
		Phone:              "0000000000",
		Password:           hashed,
		FirstName:          "Super",
		LastName:           "Admin",
		UserType:           models.USER_TYPE_SUPER_ADMIN,
		IdentificationType: models.IDENTIFICATION_TYPE_NIN,
		IdNumber:           "SUPER_ADMIN_ID",
		IsEmailVerified:    true,
	}

	tx := db.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return err
	}

	perms := models.IscePermissionsForType(models.USER_TYPE_SUPER_ADMIN)
	perms.ID = uuid.New().String()
	perms.UserID = user.ID
	if err := tx.Create(&perms).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	log.Printf("Super admin seeded (%s) em %s", superAdminEmail, time.Now().Format(time.RFC3339))
	return nil
}
