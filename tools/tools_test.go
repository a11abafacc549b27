package tools

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "secret123" {
		t.Fatal("hash igual à senha")
	}
	if !CheckPasswordHash("secret123", hash) {
		t.Fatal("senha correta rejeitada")
	}
	if CheckPasswordHash("wrongpass", hash) {
		t.Fatal("senha errada aceita")
	}
}

func TestEncryptTextSHA512Deterministic(t *testing.T) {
	a := EncryptTextSHA512("abc")
	b := EncryptTextSHA512("abc")
	if a != b {
		t.Fatal("digest não determinístico")
	}
	if len(a) != 128 {
		t.Fatalf("sha512 hex deveria ter 128 caracteres, tem %d", len(a))
	}
	if a == EncryptTextSHA512("abd") {
		t.Fatal("entradas diferentes com o mesmo digest")
	}
}

func TestGenerateDeviceTokenAlphabet(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		token := GenerateDeviceToken()
		if len(token) != 6 {
			t.Fatalf("token %q com tamanho %d", token, len(token))
		}
		for _, ch := range token {
			if !strings.ContainsRune(alphabet, ch) {
				t.Fatalf("caractere %q fora de [A-Z0-9]", ch)
			}
		}
		seen[token] = true
	}
	// 200 sorteios de um espaço de 36^6: repetição aqui indicaria gerador quebrado.
	if len(seen) < 190 {
		t.Fatalf("excesso de repetições: %d únicos em 200", len(seen))
	}
}

func TestGenerateVerifyCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateVerifyCode()
		if len(code) != 6 {
			t.Fatalf("código %q com tamanho %d", code, len(code))
		}
		for _, ch := range code[:5] {
			if ch < '0' || ch > '9' {
				t.Fatalf("prefixo não numérico em %q", code)
			}
		}
		last := code[5]
		isLetter := (last >= 'A' && last <= 'Z') || (last >= 'a' && last <= 'z')
		if !isLetter {
			t.Fatalf("último caractere de %q deveria ser letra", code)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.com"}
	invalid := []string{"", "plainaddress", "@no-local.com", "user@"}

	for _, e := range valid {
		if !ValidateEmail(e) {
			t.Errorf("%q deveria ser válido", e)
		}
	}
	for _, e := range invalid {
		if ValidateEmail(e) {
			t.Errorf("%q deveria ser inválido", e)
		}
	}
}

func TestCheckPassword(t *testing.T) {
	if msg := CheckPassword("12345"); msg == "" {
		t.Fatal("senha curta deveria ser rejeitada")
	}
	if msg := CheckPassword("123456"); msg != "" {
		t.Fatalf("senha de 6 caracteres deveria passar, veio %q", msg)
	}
}
