package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader заголовок, в котором Paystack передаёт подпись тела вебхука.
const SignatureHeader = "x-paystack-signature"

// SignatureVerifier проверяет, что тело вебхука действительно подписано
// секретным ключом провайдера. Секрет передаётся при создании, глобальный
// конфиг здесь не используется.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier создаёт проверку подписи с заданным секретом.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify сверяет HMAC-SHA512 от точных байт тела с подписью из заголовка.
// Подпись считается по сырому телу запроса, пересериализация недопустима.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
