// Package flash carries one-shot messages across a redirect in a signed
// cookie.
package flash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"vibeshop.com/app/pkg/view"
)

var ErrInvalid = errors.New("invalid flash cookie")

// MaxAge only has to outlive the redirect that reads it.
const MaxAge = 2 * time.Minute

type Codec struct {
	key        []byte
	CookieName string
	Secure     bool
}

// NewCodec derives the signing key from the app secret so flash values can
// not be replayed as other signed cookies.
func NewCodec(secret []byte, cookieName string, secure bool) *Codec {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("flash"))
	return &Codec{key: mac.Sum(nil), CookieName: cookieName, Secure: secure}
}

// Encode returns base64(json).base64(hmac).
func (c *Codec) Encode(f view.Flash) (string, error) {
	if strings.TrimSpace(f.Message) == "" {
		return "", ErrInvalid
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + c.sign(payload), nil
}

func (c *Codec) Decode(v string) (*view.Flash, error) {
	payload, sig, ok := strings.Cut(v, ".")
	if !ok || !hmac.Equal([]byte(c.sign(payload)), []byte(sig)) {
		return nil, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalid
	}
	var f view.Flash
	if err := json.Unmarshal(raw, &f); err != nil || strings.TrimSpace(f.Message) == "" {
		return nil, ErrInvalid
	}
	switch f.Kind {
	case view.FlashInfo, view.FlashSuccess, view.FlashWarning, view.FlashError:
	default:
		f.Kind = view.FlashInfo
	}
	return &f, nil
}

func (c *Codec) CookieMaxAge() int { return int(MaxAge.Seconds()) }

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
