package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"isce/config"
	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

func authRouter(db *gorm.DB, mailer tools.Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.Configuration{}
	cfg.Security.JwtSecret = "test-secret"
	cfg.Security.AccessTTLMinutes = 60
	cfg.Security.RefreshCodeLen = 32
	cfg.Security.RefreshCodeMaxValid = 30

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	r.Use(SetDepsToContext(cfg, mailer, zap.NewNop()))

	r.POST("/auth/signup", Signup)
	r.POST("/auth/signin", Signin)
	r.POST("/auth/refresh", Refresh)
	return r
}

func signupBody(email, phone string) gin.H {
	return gin.H{
		"email":           email,
		"phone":           phone,
		"password":        "secret123",
		"confirmpassword": "secret123",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
	}
}

func TestSignupCreatesUserWithPermissions(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	w, env := postJSON(r, "/auth/signup", signupBody("Ada@Example.com", "1112223333"))
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d (%s)", w.Code, env.Message)
	}

	var data struct {
		AccessToken string `json:"accessToken"`
		Email       string `json:"email"`
		UserType    string `json:"userType"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.AccessToken == "" {
		t.Fatal("signup deve devolver accessToken")
	}
	if data.Email != "ada@example.com" {
		t.Fatalf("e-mail deveria sair normalizado, veio %q", data.Email)
	}
	if data.UserType != models.USER_TYPE_USER {
		t.Fatalf("tipo default deveria ser USER, veio %s", data.UserType)
	}

	var user models.User
	if err := db.Where("email = ?", "ada@example.com").First(&user).Error; err != nil {
		t.Fatalf("usuário não persistido: %v", err)
	}
	if user.Password == "secret123" {
		t.Fatal("a senha não pode ser gravada em texto puro")
	}

	var perms models.IscePermissions
	if err := db.Where("user_id = ?", user.ID).First(&perms).Error; err != nil {
		t.Fatalf("bundle de permissões não criado: %v", err)
	}
	if !perms.Connect || !perms.Event || perms.Access {
		t.Fatalf("bundle de USER incorreto: %+v", perms)
	}

	var bizCount int64
	db.Model(&models.BusinessPermissions{}).Where("user_id = ?", user.ID).Count(&bizCount)
	if bizCount != 0 {
		t.Fatal("USER comum não recebe permissões de negócio")
	}
}

func TestSignupDuplicateEmailAndPhone(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	if w, _ := postJSON(r, "/auth/signup", signupBody("ada@example.com", "1112223333")); w.Code != http.StatusCreated {
		t.Fatalf("primeiro signup: %d", w.Code)
	}

	w, env := postJSON(r, "/auth/signup", signupBody("ada@example.com", "9998887777"))
	if w.Code != http.StatusBadRequest || env.Message != "Email already exists" {
		t.Fatalf("duplicata de e-mail: %d (%s)", w.Code, env.Message)
	}

	w, env = postJSON(r, "/auth/signup", signupBody("grace@example.com", "1112223333"))
	if w.Code != http.StatusBadRequest || env.Message != "Phone number already exists" {
		t.Fatalf("duplicata de telefone: %d (%s)", w.Code, env.Message)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	body := signupBody("ada@example.com", "1112223333")
	body["confirmpassword"] = "different1"
	w, env := postJSON(r, "/auth/signup", body)
	if w.Code != http.StatusBadRequest || env.Message != "Passwords do not match." {
		t.Fatalf("mismatch: %d (%s)", w.Code, env.Message)
	}
}

func TestSignupAdminRequiresVerifiedEmail(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	w, env := postJSON(r, "/auth/signup?userType=ADMIN", signupBody("boss@example.com", "1112223333"))
	if w.Code != http.StatusBadRequest ||
		env.Message != "Admin email must be verified by Super Admin first." {
		t.Fatalf("admin sem pré-aprovação: %d (%s)", w.Code, env.Message)
	}
}

func TestSigninAndRefreshRotation(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	if w, _ := postJSON(r, "/auth/signup", signupBody("ada@example.com", "1112223333")); w.Code != http.StatusCreated {
		t.Fatal("signup falhou")
	}

	w, env := postJSON(r, "/auth/signin", gin.H{
		"email": "ada@example.com", "password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signin: %d (%s)", w.Code, env.Message)
	}

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.AccessToken == "" || data.RefreshToken == "" {
		t.Fatal("signin deve devolver access e refresh")
	}

	// Rotação: o refresh antigo morre junto com a troca.
	w2, env2 := postJSON(r, "/auth/refresh", gin.H{"refreshToken": data.RefreshToken})
	if w2.Code != http.StatusOK {
		t.Fatalf("refresh: %d (%s)", w2.Code, env2.Message)
	}
	var rotated struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env2.Data, &rotated); err != nil {
		t.Fatal(err)
	}
	if rotated.RefreshToken == data.RefreshToken {
		t.Fatal("o refresh devolvido tem que ser novo")
	}

	w3, _ := postJSON(r, "/auth/refresh", gin.H{"refreshToken": data.RefreshToken})
	if w3.Code != http.StatusUnauthorized {
		t.Fatalf("reuso de refresh rotacionado deveria dar 401, veio %d", w3.Code)
	}
}

func TestSigninWrongPassword(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	if w, _ := postJSON(r, "/auth/signup", signupBody("ada@example.com", "1112223333")); w.Code != http.StatusCreated {
		t.Fatal("signup falhou")
	}

	w, env := postJSON(r, "/auth/signin", gin.H{
		"email": "ada@example.com", "password": "wrongpass",
	})
	if w.Code != http.StatusBadRequest || env.Message != "Incorrect Password" {
		t.Fatalf("senha errada: %d (%s)", w.Code, env.Message)
	}
}

func TestSigninBlockedUser(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db, &fakeMailer{})

	if w, _ := postJSON(r, "/auth/signup", signupBody("ada@example.com", "1112223333")); w.Code != http.StatusCreated {
		t.Fatal("signup falhou")
	}
	db.Model(&models.User{}).Where("email = ?", "ada@example.com").
		Update("is_blocked", true)

	w, _ := postJSON(r, "/auth/signin", gin.H{
		"email": "ada@example.com", "password": "secret123",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("conta bloqueada deveria dar 403, veio %d", w.Code)
	}
}
