package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/cartcookie"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

const (
	oauthStateCookie  = "oauth_state"
	oauthReturnCookie = "oauth_return"
	oauthStateTTL     = 10 * time.Minute
)

type AuthHandler struct {
	R       *render.Renderer
	Flash   *flash.Codec
	CK      *cartcookie.Codec
	Auth    *auth.Service
	Session middleware.SessionCookie
	Logger  *slog.Logger
}

type loginInput struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type signupInput struct {
	Name            string `form:"name" binding:"required,max=50"`
	Email           string `form:"email" binding:"required,email,max=255"`
	Password        string `form:"password" binding:"required,min=6"`
	PasswordConfirm string `form:"password_confirm" binding:"required,eqfield=Password"`
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		render.Redirect(c, "/")
		return
	}
	h.login(c, http.StatusOK, view.LoginPage{ReturnTo: normalizeReturnTo(c.Query("return_to"))})
}

func (h *AuthHandler) Login(c *gin.Context) {
	returnTo := normalizeReturnTo(c.PostForm("return_to"))
	var in loginInput
	if err := c.ShouldBind(&in); err != nil {
		h.login(c, http.StatusBadRequest, view.LoginPage{Email: in.Email, ReturnTo: returnTo, Errors: validation.FromBindError(err, &in)})
		return
	}
	iss, err := h.Auth.SignIn(c.Request.Context(), in.Email, in.Password)
	if apperr.Is(err, apperr.Unauthorized) || apperr.Is(err, apperr.Forbidden) {
		h.login(c, apperr.HTTPStatus(err), view.LoginPage{Email: in.Email, ReturnTo: returnTo, Message: apperr.PublicMessage(err)})
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.signedIn(c, iss, returnTo, "로그인되었습니다.")
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		render.Redirect(c, "/")
		return
	}
	h.signup(c, http.StatusOK, view.SignupPage{ReturnTo: normalizeReturnTo(c.Query("return_to"))})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	returnTo := normalizeReturnTo(c.PostForm("return_to"))
	var in signupInput
	if err := c.ShouldBind(&in); err != nil {
		h.signup(c, http.StatusBadRequest, view.SignupPage{Email: in.Email, Name: in.Name, ReturnTo: returnTo, Errors: validation.FromBindError(err, &in)})
		return
	}
	iss, err := h.Auth.SignUp(c.Request.Context(), auth.SignUpInput{Email: in.Email, Password: in.Password, Name: in.Name})
	if validation.IsInvalid(err) {
		errs := validation.FromAppError(err)
		if apperr.Is(err, apperr.Conflict) {
			errs = view.FieldErrors{"email": apperr.PublicMessage(err)}
		}
		h.signup(c, http.StatusBadRequest, view.SignupPage{Email: in.Email, Name: in.Name, ReturnTo: returnTo, Errors: errs})
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.signedIn(c, iss, returnTo, "회원가입이 완료되었습니다.")
}

// Logout ends the session and empties the cart.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Auth.SignOut(c.Request.Context(), middleware.SessionToken(c, h.Session)); err != nil {
		h.Logger.WarnContext(c.Request.Context(), "signout_failed", "err", err)
	}
	middleware.ClearSessionCookie(c, h.Session)
	h.CK.Clear(c)
	render.RedirectWithFlash(c, h.Flash, "/", view.FlashInfo, "로그아웃되었습니다.")
}

// Google starts the federated sign-in with a state cookie.
func (h *AuthHandler) Google(c *gin.Context) {
	state := randHex(16)
	target, err := h.Auth.FederatedURL(state)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	maxAge := int(oauthStateTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, maxAge, "/", "", h.Session.Secure, true)
	c.SetCookie(oauthReturnCookie, normalizeReturnTo(c.Query("return_to")), maxAge, "/", "", h.Session.Secure, true)
	c.Redirect(http.StatusFound, target)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	want, _ := c.Cookie(oauthStateCookie)
	returnTo, _ := c.Cookie(oauthReturnCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.Session.Secure, true)
	c.SetCookie(oauthReturnCookie, "", -1, "/", "", h.Session.Secure, true)

	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		render.RedirectWithFlash(c, h.Flash, "/login", view.FlashError, "로그인 요청이 만료되었습니다. 다시 시도해 주세요.")
		return
	}
	if c.Query("error") != "" || c.Query("code") == "" {
		render.RedirectWithFlash(c, h.Flash, "/login", view.FlashError, "Google 로그인이 취소되었습니다.")
		return
	}
	iss, err := h.Auth.CompleteFederated(c.Request.Context(), c.Query("code"))
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Kind != apperr.Internal {
			render.RedirectWithFlash(c, h.Flash, "/login", view.FlashError, ae.PublicMsg)
			return
		}
		middleware.Fail(c, err)
		return
	}
	h.signedIn(c, iss, normalizeReturnTo(returnTo), "로그인되었습니다.")
}

func (h *AuthHandler) signedIn(c *gin.Context, iss auth.Issued, returnTo, msg string) {
	middleware.SetSessionCookie(c, h.Session, iss.Token)
	dest := returnTo
	if dest == "" {
		dest = "/"
		if iss.Principal.IsAdmin() {
			dest = "/admin"
		}
	}
	render.RedirectWithFlash(c, h.Flash, dest, view.FlashSuccess, msg)
}

func (h *AuthHandler) login(c *gin.Context, status int, page view.LoginPage) {
	page.GoogleEnabled = h.Auth.FederatedEnabled()
	h.R.Page(c, status, "login", "로그인", page)
}

func (h *AuthHandler) signup(c *gin.Context, status int, page view.SignupPage) {
	page.GoogleEnabled = h.Auth.FederatedEnabled()
	h.R.Page(c, status, "signup", "회원가입", page)
}
