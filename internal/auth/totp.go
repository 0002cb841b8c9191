package auth

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPSecret - сгенерированный секрет 2FA с provisioning-URL для QR кода
type TOTPSecret struct {
	Secret     string // base32
	OtpauthURL string
}

// GenerateTOTPSecret генерирует секрет для приложения-аутентификатора
func GenerateTOTPSecret(issuer, accountName string) (*TOTPSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		SecretSize:  20,
	})
	if err != nil {
		return nil, err
	}
	return &TOTPSecret{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
	}, nil
}

// VerifyTOTPCode проверяет код против секрета с допуском в один шаг
// в обе стороны (компенсация расхождения часов, шаг 30 секунд).
// Пробелы внутри кода игнорируются - аутентификаторы показывают "123 456".
func VerifyTOTPCode(secret, code string) bool {
	normalized := strings.ReplaceAll(code, " ", "")
	ok, err := totp.ValidateCustom(normalized, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
