package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingConfig is returned when a credential or endpoint needed to talk to
// the gateway is not configured.
var ErrMissingConfig = errors.New("tripay: missing configuration")

// Signer computes the closed-payment signature the gateway expects on
// transaction requests.
type Signer struct {
	merchantCode string
	privateKey   []byte
}

// NewSigner creates a signer bound to one merchant
func NewSigner(merchantCode, privateKey string) (*Signer, error) {
	if merchantCode == "" {
		return nil, fmt.Errorf("%w: merchant code", ErrMissingConfig)
	}
	if privateKey == "" {
		return nil, fmt.Errorf("%w: private key", ErrMissingConfig)
	}
	return &Signer{merchantCode: merchantCode, privateKey: []byte(privateKey)}, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of merchant code, merchant
// reference and amount, keyed by the private key.
func (s *Signer) Sign(merchantRef string, amount int64) string {
	mac := hmac.New(sha256.New, s.privateKey)
	mac.Write([]byte(s.merchantCode + merchantRef + strconv.FormatInt(amount, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
