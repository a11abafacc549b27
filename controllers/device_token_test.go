package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"isce/config"
	dbpkg "isce/db"
	"isce/models"
	"isce/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// fakeMailer grava as mensagens em memória; failNext simula indisponibilidade
// do provedor.
type fakeMailer struct {
	sent     []fakeMail
	failNext bool
}

type fakeMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, fakeMail{To: to, Subject: subject, Body: body})
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("abrindo sqlite em memória: %v", err)
	}
	// Uma conexão só: cada conexão nova do pool veria um :memory: vazio.
	db.DB().SetMaxOpenConns(1)
	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() config.Configuration {
	cfg := config.Configuration{}
	cfg.Security.JwtSecret = "test-secret"
	cfg.Security.AccessTTLMinutes = 60
	cfg.Security.RefreshCodeLen = 32
	cfg.Security.RefreshCodeMaxValid = 30
	return cfg
}

func testRouter(db *gorm.DB, mailer tools.Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	r.Use(SetDepsToContext(testConfig(), mailer, zap.NewNop()))

	// Mesmo tier do router real: as rotas de dispositivo exigem sessão.
	logged := r.Group("")
	logged.Use(AuthRequired())
	logged.POST("/device/request-token", RequestDeviceToken)
	logged.POST("/device/verify-token", VerifyDeviceToken)
	return r
}

// bearerFor assina um access token para o usuário, como o Signin faria.
func bearerFor(t *testing.T, user models.User) string {
	t.Helper()
	signed, _, err := signAccessToken(testConfig(), user, time.Now())
	if err != nil {
		t.Fatalf("assinando access token: %v", err)
	}
	return signed
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Phone:    uuid.New().String()[:10],
		Password: "irrelevant",
		UserType: models.USER_TYPE_USER,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("criando usuário: %v", err)
	}
	return user
}

func postJSON(r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, envelope) {
	return postJSONAs(r, path, body, "")
}

func postJSONAs(r *gin.Engine, path string, body any, bearer string) (*httptest.ResponseRecorder, envelope) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func requestToken(t *testing.T, r *gin.Engine, user models.User, productID string) string {
	t.Helper()
	w, env := postJSONAs(r, "/device/request-token", gin.H{
		"email":      user.Email,
		"userId":     user.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  productID,
	}, bearerFor(t, user))
	if w.Code != http.StatusOK {
		t.Fatalf("request-token: status %d, mensagem %q", w.Code, env.Message)
	}
	var data struct {
		TokenID string `json:"tokenId"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.TokenID == "" {
		t.Fatalf("request-token: data sem tokenId: %s", env.Data)
	}
	return data.TokenID
}

// tokenValue busca o valor cru no DB: ele nunca aparece na resposta HTTP.
func tokenValue(t *testing.T, db *gorm.DB, tokenID string) string {
	t.Helper()
	var token models.Token
	if err := db.Where("id = ?", tokenID).First(&token).Error; err != nil {
		t.Fatalf("carregando token %s: %v", tokenID, err)
	}
	return token.Token
}

func TestDeviceRoutesRequireSession(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	// Sem Authorization nem cookie: nenhum handler de dispositivo roda.
	w, _ := postJSON(r, "/device/request-token", gin.H{
		"email":      user.Email,
		"userId":     user.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-noauth",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("request-token sem sessão deveria dar 401, veio %d", w.Code)
	}

	w2, _ := postJSON(r, "/device/verify-token", gin.H{
		"token":  "ABC123",
		"userId": user.ID,
	})
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("verify-token sem sessão deveria dar 401, veio %d", w2.Code)
	}

	var tokens int64
	db.Model(&models.Token{}).Count(&tokens)
	if tokens != 0 {
		t.Fatalf("nenhum token deveria ter sido emitido, há %d", tokens)
	}
}

func TestRequestTokenNeverLeaksValue(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{}
	r := testRouter(db, mailer)
	user := createTestUser(t, db, "owner@example.com")

	tokenID := requestToken(t, r, user, "nfc-001")
	value := tokenValue(t, db, tokenID)

	if len(value) != 6 {
		t.Fatalf("token com tamanho %d, esperava 6", len(value))
	}
	for _, ch := range value {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", ch) {
			t.Fatalf("caractere fora do alfabeto [A-Z0-9]: %q", ch)
		}
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("esperava 1 e-mail enviado, houve %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].Body, value) {
		t.Fatal("o e-mail deveria conter o token")
	}
}

func TestRequestTokenUnknownUser(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	caller := createTestUser(t, db, "caller@example.com")

	w, _ := postJSONAs(r, "/device/request-token", gin.H{
		"email":      "ghost@example.com",
		"userId":     uuid.New().String(),
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-404",
	}, bearerFor(t, caller))
	if w.Code != http.StatusNotFound {
		t.Fatalf("esperava 404, veio %d", w.Code)
	}
}

func TestRequestTokenClaimedProduct(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	now := time.Now()
	device := models.Device{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Type:       models.DEVICE_TYPE_CARD,
		ProductID:  "nfc-claimed",
		IsPrimary:  true,
		IsActive:   true,
		AssignedAt: &now,
	}
	if err := db.Create(&device).Error; err != nil {
		t.Fatal(err)
	}

	w, env := postJSONAs(r, "/device/request-token", gin.H{
		"email":      user.Email,
		"userId":     user.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-claimed",
	}, bearerFor(t, user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("esperava 400, veio %d (%s)", w.Code, env.Message)
	}
}

func TestRequestTokenInvalidatesPrevious(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	first := requestToken(t, r, user, "nfc-A")
	second := requestToken(t, r, user, "nfc-B")

	var old models.Token
	if err := db.Where("id = ?", first).First(&old).Error; err != nil {
		t.Fatal(err)
	}
	if !old.Used || old.UsedAt == nil {
		t.Fatal("o primeiro token deveria ter sido invalidado pelo segundo request")
	}

	var fresh models.Token
	if err := db.Where("id = ?", second).First(&fresh).Error; err != nil {
		t.Fatal(err)
	}
	if fresh.Used {
		t.Fatal("o token novo não pode nascer usado")
	}

	var live int64
	db.Model(&models.Token{}).
		Where("assigned_to = ? AND used = ?", user.Email, false).Count(&live)
	if live != 1 {
		t.Fatalf("esperava exatamente 1 token vivo, há %d", live)
	}
}

func TestRequestTokenMailFailureKeepsRow(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{failNext: true}
	r := testRouter(db, mailer)
	user := createTestUser(t, db, "owner@example.com")

	w, _ := postJSONAs(r, "/device/request-token", gin.H{
		"email":      user.Email,
		"userId":     user.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-mailfail",
	}, bearerFor(t, user))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("falha de e-mail deveria falhar o request com 502, veio %d", w.Code)
	}

	// A linha fica: estado enviado-mas-talvez-não-entregue, sem rollback.
	var count int64
	db.Model(&models.Token{}).Where("product_id = ?", "nfc-mailfail").Count(&count)
	if count != 1 {
		t.Fatalf("o token deveria permanecer persistido, há %d linhas", count)
	}
}

func TestVerifyTokenHappyPathAndSingleConsumption(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	tokenID := requestToken(t, r, user, "nfc-happy")
	value := tokenValue(t, db, tokenID)

	w, env := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": user.ID,
	}, bearerFor(t, user))
	if w.Code != http.StatusOK {
		t.Fatalf("verify falhou: %d (%s)", w.Code, env.Message)
	}

	var data struct {
		Device     models.Device `json:"device"`
		TokenID    string        `json:"tokenId"`
		VerifiedAt string        `json:"verifiedAt"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data inesperado: %s", env.Data)
	}
	if data.TokenID != tokenID {
		t.Fatalf("tokenId %s, esperava %s", data.TokenID, tokenID)
	}
	if !data.Device.IsPrimary {
		t.Fatal("o primeiro device do usuário deve nascer primário")
	}
	if data.Device.ProductID != "nfc-happy" {
		t.Fatalf("productId %s", data.Device.ProductID)
	}

	var consumed models.Token
	db.Where("id = ?", tokenID).First(&consumed)
	if !consumed.Used || consumed.DeviceID == nil || *consumed.DeviceID != data.Device.ID {
		t.Fatal("o token deveria sair usado e apontando para o device criado")
	}

	// Replay: sempre "already used", e nunca um segundo device.
	w2, env2 := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": user.ID,
	}, bearerFor(t, user))
	if w2.Code != http.StatusBadRequest || !strings.Contains(env2.Message, "already used") {
		t.Fatalf("replay deveria dar 400 already used, veio %d (%s)", w2.Code, env2.Message)
	}
	var devices int64
	db.Model(&models.Device{}).Where("user_id = ?", user.ID).Count(&devices)
	if devices != 1 {
		t.Fatalf("replay criou device extra: %d", devices)
	}
}

func TestVerifyTokenUsedBeforeExpired(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	past := time.Now().Add(-time.Hour)
	usedAt := past.Add(-time.Minute)

	usedAndExpired := models.Token{
		ID:         uuid.New().String(),
		Token:      "USED01",
		AssignedTo: user.Email,
		UserID:     user.ID,
		DeviceType: models.DEVICE_TYPE_CARD,
		ProductID:  "nfc-old",
		Used:       true,
		UsedAt:     &usedAt,
		ExpiresAt:  &past,
	}
	if err := db.Create(&usedAndExpired).Error; err != nil {
		t.Fatal(err)
	}

	// Usado E expirado: o used-check vem antes do expiry-check.
	w, env := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  "USED01",
		"userId": user.ID,
	}, bearerFor(t, user))
	if w.Code != http.StatusBadRequest || !strings.Contains(env.Message, "already used") {
		t.Fatalf("esperava already used, veio %d (%s)", w.Code, env.Message)
	}

	expiredOnly := models.Token{
		ID:         uuid.New().String(),
		Token:      "EXPD01",
		AssignedTo: user.Email,
		UserID:     user.ID,
		DeviceType: models.DEVICE_TYPE_CARD,
		ProductID:  "nfc-exp",
		ExpiresAt:  &past,
	}
	if err := db.Create(&expiredOnly).Error; err != nil {
		t.Fatal(err)
	}

	w2, env2 := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  "EXPD01",
		"userId": user.ID,
	}, bearerFor(t, user))
	if w2.Code != http.StatusBadRequest || !strings.Contains(env2.Message, "expired") {
		t.Fatalf("esperava expired, veio %d (%s)", w2.Code, env2.Message)
	}
}

func TestVerifyTokenEmailBinding(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	tokenID := requestToken(t, r, owner, "nfc-bind")
	value := tokenValue(t, db, tokenID)

	w, _ := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": other.ID,
	}, bearerFor(t, other))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("token de outro e-mail deveria dar 401, veio %d", w.Code)
	}

	// O token continua intocado e verificável pelo dono.
	w2, _ := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": owner.ID,
	}, bearerFor(t, owner))
	if w2.Code != http.StatusOK {
		t.Fatalf("o dono deveria conseguir verificar depois, veio %d", w2.Code)
	}
}

func TestVerifyTokenBindsDeviceToTokenOwner(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	// Emissão para o userId do owner, mas com o e-mail do other.
	w, env := postJSONAs(r, "/device/request-token", gin.H{
		"email":      other.Email,
		"userId":     owner.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-xbind",
	}, bearerFor(t, owner))
	if w.Code != http.StatusOK {
		t.Fatalf("request: %d (%s)", w.Code, env.Message)
	}
	var data struct {
		TokenID string `json:"tokenId"`
	}
	_ = json.Unmarshal(env.Data, &data)
	value := tokenValue(t, db, data.TokenID)

	// Other passa no check de e-mail (o token foi endereçado a ele), mas o
	// device nasce no usuário informado na emissão.
	w2, env2 := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": other.ID,
	}, bearerFor(t, other))
	if w2.Code != http.StatusOK {
		t.Fatalf("verify: %d (%s)", w2.Code, env2.Message)
	}

	var device models.Device
	if err := db.Where("product_id = ?", "nfc-xbind").First(&device).Error; err != nil {
		t.Fatal(err)
	}
	if device.UserID != owner.ID {
		t.Fatalf("device vinculado a %s, esperava o dono da emissão %s", device.UserID, owner.ID)
	}
}

func TestVerifyTokenCaseSensitiveEmail(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "Owner@Example.com")

	// Emissão com caixa diferente da gravada no usuário.
	w, env := postJSONAs(r, "/device/request-token", gin.H{
		"email":      "owner@example.com",
		"userId":     user.ID,
		"deviceType": models.DEVICE_TYPE_CARD,
		"productId":  "nfc-case",
	}, bearerFor(t, user))
	if w.Code != http.StatusOK {
		t.Fatalf("request: %d (%s)", w.Code, env.Message)
	}
	var data struct {
		TokenID string `json:"tokenId"`
	}
	_ = json.Unmarshal(env.Data, &data)
	value := tokenValue(t, db, data.TokenID)

	// Comparação exata contra o valor gravado na emissão: tem que falhar.
	w2, _ := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  value,
		"userId": user.ID,
	}, bearerFor(t, user))
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("caixa divergente deveria dar 401, veio %d", w2.Code)
	}
}

func TestVerifyTokenInvalidValue(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	w, _ := postJSONAs(r, "/device/verify-token", gin.H{
		"token":  "NOPE99",
		"userId": user.ID,
	}, bearerFor(t, user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("token inexistente deveria dar 400, veio %d", w.Code)
	}
}

func TestVerifySecondDeviceNotPrimary(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db, &fakeMailer{})
	user := createTestUser(t, db, "owner@example.com")

	first := requestToken(t, r, user, "nfc-1st")
	postJSONAs(r, "/device/verify-token", gin.H{
		"token": tokenValue(t, db, first), "userId": user.ID,
	}, bearerFor(t, user))

	second := requestToken(t, r, user, "nfc-2nd")
	w, env := postJSONAs(r, "/device/verify-token", gin.H{
		"token": tokenValue(t, db, second), "userId": user.ID,
	}, bearerFor(t, user))
	if w.Code != http.StatusOK {
		t.Fatalf("verify do segundo device: %d (%s)", w.Code, env.Message)
	}

	var data struct {
		Device models.Device `json:"device"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Device.IsPrimary {
		t.Fatal("o segundo device não pode nascer primário")
	}

	var primaries int64
	db.Model(&models.Device{}).
		Where("user_id = ? AND is_primary = ?", user.ID, true).Count(&primaries)
	if primaries != 1 {
		t.Fatalf("usuário com %d devices primários", primaries)
	}
}

func TestCleanupExpiredDeviceTokens(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "owner@example.com")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	usedAt := past

	rows := []models.Token{
		// A: expirado e nunca usado -> deletado
		{ID: uuid.New().String(), Token: "CLNA01", AssignedTo: user.Email,
			UserID: user.ID, DeviceType: models.DEVICE_TYPE_CARD,
			ProductID: "nfc-a", ExpiresAt: &past},
		// B: expirado mas usado -> fica (trilha de auditoria)
		{ID: uuid.New().String(), Token: "CLNB01", AssignedTo: user.Email,
			UserID: user.ID, DeviceType: models.DEVICE_TYPE_CARD,
			ProductID: "nfc-b", Used: true, UsedAt: &usedAt, ExpiresAt: &past},
		// C: vivo -> fica
		{ID: uuid.New().String(), Token: "CLNC01", AssignedTo: user.Email,
			UserID: user.ID, DeviceType: models.DEVICE_TYPE_CARD,
			ProductID: "nfc-c", ExpiresAt: &future},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := CleanupExpiredDeviceTokens(db)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("esperava 1 deleção, houve %d", deleted)
	}

	// Idempotente.
	deleted, err = CleanupExpiredDeviceTokens(db)
	if err != nil || deleted != 0 {
		t.Fatalf("segunda passada deveria deletar 0, deletou %d (err %v)", deleted, err)
	}

	var remaining int64
	db.Model(&models.Token{}).Count(&remaining)
	if remaining != 2 {
		t.Fatalf("esperava 2 tokens restantes, há %d", remaining)
	}
}

func TestGenerateUniqueDeviceTokenRetriesOnCollision(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "owner@example.com")

	// A tabela inteira conta para colisão, inclusive tokens já usados.
	exp := time.Now().Add(time.Hour)
	seeded := models.Token{
		ID: uuid.New().String(), Token: "AAAAAA", AssignedTo: user.Email,
		UserID: user.ID, DeviceType: models.DEVICE_TYPE_CARD,
		ProductID: "nfc-seed", Used: true, ExpiresAt: &exp,
	}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		value, err := generateUniqueDeviceToken(db)
		if err != nil {
			t.Fatalf("geração falhou: %v", err)
		}
		if value == "AAAAAA" {
			t.Fatal("gerou um token já existente")
		}
		if len(value) != 6 {
			t.Fatalf("token com tamanho %d", len(value))
		}
	}
}
