package tools

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const numbers = "0123456789"
const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword aplica bcrypt com custo 10.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// EncryptTextSHA512 é usado para digests de tokens guardados no DB
// (refresh e reset), nunca para senhas.
func EncryptTextSHA512(text string) string {
	sum := sha512.Sum512([]byte(text))
	return hex.EncodeToString(sum[:])
}

func randomFrom(charset string, length int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, length)
	for i := range b {
		// crypto/rand caractere a caractere; erro aqui só com a fonte de
		// entropia do SO quebrada.
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

func RandomNumbers(length int) string {
	return randomFrom(numbers, length)
}

func RandomString(length int) string {
	return randomFrom(numbers+letters, length)
}

// GenerateDeviceToken gera um candidato de token de dispositivo:
// 6 caracteres em [A-Z0-9].
func GenerateDeviceToken() string {
	return randomFrom(tokenCharset, 6)
}

// GenerateVerifyCode gera o código de verificação de e-mail:
// 5 dígitos seguidos de uma letra.
func GenerateVerifyCode() string {
	return randomFrom(numbers, 5) + randomFrom(letters, 1)
}
