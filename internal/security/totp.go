package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	totpSecretBytes = 20
	totpDigits      = 6
	totpPeriod      = 30
	totpSkew        = 1
)

var ErrInvalidTOTPSecret = errors.New("invalid totp secret")

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTP implements RFC 6238 codes: HMAC-SHA1, six digits, 30 second steps,
// one step of clock skew tolerated in either direction.
type TOTP struct {
	issuer string
	now    func() time.Time
}

func NewTOTP(issuer string) *TOTP {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		issuer = "Clan Manager"
	}
	return &TOTP{issuer: issuer, now: time.Now}
}

func (t *TOTP) Issuer() string {
	return t.issuer
}

// GenerateSecret returns a fresh base32 secret and its otpauth:// provisioning URI.
func (t *TOTP) GenerateSecret(accountLabel string) (string, string, error) {
	buf := make([]byte, totpSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate totp secret: %w", err)
	}

	secret := secretEncoding.EncodeToString(buf)
	return secret, t.ProvisioningURI(accountLabel, secret), nil
}

func (t *TOTP) ProvisioningURI(accountLabel string, secret string) string {
	label := t.issuer
	if account := strings.TrimSpace(accountLabel); account != "" {
		label = t.issuer + ":" + account
	}

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", t.issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprint(totpDigits))
	q.Set("period", fmt.Sprint(totpPeriod))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// VerifyCode checks code against secret at the current time.
func (t *TOTP) VerifyCode(code string, secret string) bool {
	return VerifyCodeAt(code, secret, t.now())
}

// VerifyCodeAt accepts the code for the step containing at and its two
// neighbours. A malformed secret never verifies.
func VerifyCodeAt(code string, secret string, at time.Time) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	code = normalizeCode(code)
	if len(code) != totpDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	counter := at.UTC().Unix() / totpPeriod
	matched := 0
	for offset := int64(-totpSkew); offset <= totpSkew; offset++ {
		expected := hotp(key, counter+offset)
		matched |= subtle.ConstantTimeCompare([]byte(expected), []byte(code))
	}
	return matched == 1
}

// CodeAt returns the code a device holding secret would display at the given time.
func CodeAt(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, at.UTC().Unix()/totpPeriod), nil
}

func normalizeCode(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
}

func decodeSecret(secret string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(secret))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimRight(cleaned, "=")
	if cleaned == "" {
		return nil, ErrInvalidTOTPSecret
	}

	key, err := secretEncoding.DecodeString(cleaned)
	if err != nil || len(key) < 10 {
		return nil, ErrInvalidTOTPSecret
	}
	return key, nil
}

func hotp(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", totpDigits, value%1_000_000)
}
