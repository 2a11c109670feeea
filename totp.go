package authcore

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const qrImageSize = 256

// totpManager wraps TOTP enrollment and verification. Lockout accounting
// lives in the engine; this type only generates secrets and checks codes
// against the standard 30-second-step algorithm with the configured skew.
type totpManager struct {
	config  MFAConfig
	appName string
}

func newTOTPManager(cfg MFAConfig, appName string) *totpManager {
	return &totpManager{config: cfg, appName: appName}
}

// GenerateSetup creates a fresh shared secret and the scannable
// provisioning artifacts for the given account label.
func (m *totpManager) GenerateSetup(account string) (*MFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.appName,
		AccountName: account,
		Period:      m.config.Period,
		Digits:      otp.Digits(m.config.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &MFASetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyCode checks a presented code against the base32 secret at the
// given instant.
func (m *totpManager) VerifyCode(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    m.config.Period,
		Skew:      m.config.Skew,
		Digits:    otp.Digits(m.config.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
