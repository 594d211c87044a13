package cartcookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/modules/cart"
)

var ErrInvalid = errors.New("invalid cart cookie")

// MaxAge keeps a guest cart for 30 days.
const MaxAge = 30 * 24 * time.Hour

// Codec stores the cart itself in a signed cookie.
type Codec struct {
	Secret     []byte
	CookieName string
	Secure     bool
}

func New(secret []byte, name string, secure bool) *Codec {
	return &Codec{Secret: secret, CookieName: name, Secure: secure}
}

// Encode returns base64(json(lines)).base64(hmac(payload)).
func (c *Codec) Encode(ct cart.Cart) (string, error) {
	raw, err := json.Marshal(ct.Lines)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + sign(c.Secret, payload), nil
}

func (c *Codec) Decode(v string) (cart.Cart, error) {
	payload, sig, ok := strings.Cut(v, ".")
	if !ok || payload == "" {
		return cart.Cart{}, ErrInvalid
	}
	if !verify(c.Secret, payload, sig) {
		return cart.Cart{}, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return cart.Cart{}, ErrInvalid
	}
	var lines []cart.Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return cart.Cart{}, ErrInvalid
	}
	return cart.New(lines...), nil
}

// Get reads the request's cart. A tampered cookie is cleared and reads as
// an empty cart.
func (c *Codec) Get(ctx *gin.Context) cart.Cart {
	v, err := ctx.Cookie(c.CookieName)
	if err != nil || v == "" {
		return cart.Cart{}
	}
	ct, err := c.Decode(v)
	if err != nil {
		c.Clear(ctx)
		return cart.Cart{}
	}
	return ct
}

func (c *Codec) Set(ctx *gin.Context, ct cart.Cart) error {
	if ct.Empty() {
		c.Clear(ctx)
		return nil
	}
	val, err := c.Encode(ct)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.CookieName, val, int(MaxAge.Seconds()), "/", "", c.Secure, true)
	return nil
}

func (c *Codec) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.CookieName, "", -1, "/", "", c.Secure, true)
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verify(secret []byte, payload, sig string) bool {
	return hmac.Equal([]byte(sign(secret, payload)), []byte(sig))
}
