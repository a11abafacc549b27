package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret           string `json:"jwt_secret"`
		AdminSecretKey      string `json:"admin_secret_key"`
		AccessTTLMinutes    int    `json:"access_ttl_minutes"`
		RefreshCodeLen      int    `json:"refresh_code_len"`
		RefreshCodeMaxValid int    `json:"refresh_code_max_valid_days"`
	} `json:"security"`

	Smtp struct {
		Host string `json:"host"`
		Port string `json:"port"`
		User string `json:"user"`
		Pass string `json:"pass"`
		From string `json:"from"`
	} `json:"smtp"`

	SeedSuperAdmin bool `json:"seed_super_admin"`
}

// Get carrega o config.json e aplica overrides de ENV para segredos,
// com defaults pra evitar zero/nil chato. O struct é montado UMA vez no main
// e injetado; controllers nunca leem env direto.
func Get(path string) Configuration {
	var c Configuration

	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &c); err != nil {
			log.Fatal(err)
		}
	} else if path != "" {
		log.Printf("config: %s não encontrado, seguindo só com ENV/defaults", path)
	}

	// Overrides de ambiente (instalação via .env)
	if v := os.Getenv("PORT"); v != "" {
		c.ApiPort = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Security.JwtSecret = v
	}
	if v := os.Getenv("ADMIN_SECRET_KEY"); v != "" {
		c.Security.AdminSecretKey = v
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" {
		c.Smtp.Host = v
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" {
		c.Smtp.Port = v
	}
	if v := os.Getenv("EMAIL_USER"); v != "" {
		c.Smtp.User = v
	}
	if v := os.Getenv("EMAIL_PASS"); v != "" {
		c.Smtp.Pass = v
	}

	// defaults
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.AccessTTLMinutes <= 0 {
		c.Security.AccessTTLMinutes = 24 * 60
	}
	if c.Security.RefreshCodeLen <= 0 {
		c.Security.RefreshCodeLen = 32
	}
	if c.Security.RefreshCodeMaxValid <= 0 {
		c.Security.RefreshCodeMaxValid = 30
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Smtp.Host == "" {
		c.Smtp.Host = "smtp.gmail.com"
	}
	if c.Smtp.Port == "" {
		c.Smtp.Port = "465"
	}

	return c
}
