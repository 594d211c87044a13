package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeResolver struct {
	principals map[string]auth.Principal
	err        error
}

func (f fakeResolver) Resolve(_ context.Context, token string) (auth.Principal, bool, error) {
	if f.err != nil {
		return auth.Principal{}, false, f.err
	}
	p, ok := f.principals[token]
	return p, ok, nil
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func textPage(c *gin.Context, status int, msg, rid string) {
	c.String(status, "page:"+msg)
}

func TestSession(t *testing.T) {
	ck := SessionCookie{Name: "sid", TTL: time.Hour}
	res := fakeResolver{principals: map[string]auth.Principal{
		"admin-token": {UserID: "u1", Role: "admin"},
		"user-token":  {UserID: "u2", Role: "user"},
	}}
	codec := flash.NewCodec([]byte("0123456789abcdef"), "flash", false)

	r := newEngine()
	r.Use(Session(res, ck, quiet))
	r.GET("/whoami", func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.String(200, "anonymous")
			return
		}
		c.String(200, u.UserID)
	})
	r.GET("/admin", RequireAdmin(codec), func(c *gin.Context) { c.String(200, "admin") })
	r.GET("/mypage", RequireAuth(codec), func(c *gin.Context) { c.String(200, "mine") })

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should resolve the principal", func(t *testing.T) {
		assert.Equal(t, "u1", get("/whoami", "admin-token").Body.String())
	})

	t.Run("Should clear an unknown token", func(t *testing.T) {
		w := get("/whoami", "stale")
		assert.Equal(t, "anonymous", w.Body.String())
		assert.Contains(t, w.Header().Get("Set-Cookie"), "sid=;")
	})

	t.Run("Should send anonymous visitors to login", func(t *testing.T) {
		w := get("/mypage", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?return_to="+url.QueryEscape("/mypage"), w.Header().Get("Location"))
	})

	t.Run("Should keep non-admins out of the console", func(t *testing.T) {
		w := get("/admin", "user-token")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Equal(t, "admin", get("/admin", "admin-token").Body.String())
	})

	t.Run("Should stay anonymous when the store fails", func(t *testing.T) {
		r := newEngine()
		r.Use(Session(fakeResolver{err: errors.New("db down")}, ck, quiet))
		r.GET("/", func(c *gin.Context) {
			_, ok := CurrentUser(c)
			assert.False(t, ok)
			c.Status(204)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "x"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, 204, w.Code)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})
}

func TestCSRF(t *testing.T) {
	r := newEngine()
	r.Use(ErrorHandler(quiet, textPage), CSRF(false, "/webhooks/"))
	r.GET("/form", func(c *gin.Context) { c.String(200, GetCSRFToken(c)) })
	r.POST("/form", func(c *gin.Context) { c.String(200, "ok") })
	r.POST("/webhooks/toss", func(c *gin.Context) { c.String(200, "hook") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	token := w.Body.String()
	require.Len(t, token, csrfTokenSize)

	post := func(path, sent string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(url.Values{CSRFField: {sent}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should accept a matching token", func(t *testing.T) {
		assert.Equal(t, "ok", post("/form", token).Body.String())
	})

	t.Run("Should reject a missing token", func(t *testing.T) {
		w := post("/form", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "page:")
	})

	t.Run("Should exempt webhooks", func(t *testing.T) {
		assert.Equal(t, "hook", post("/webhooks/toss", "").Body.String())
	})
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), Recovery(quiet, textPage), ErrorHandler(quiet, textPage))
	r.GET("/missing", func(c *gin.Context) { Fail(c, apperr.NotFoundErr("없는 상품입니다.")) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	t.Run("Should render the public message", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "page:없는 상품입니다.", w.Body.String())
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	})

	t.Run("Should answer JSON clients with JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.JSONEq(t, `{"error":"없는 상품입니다.","request_id":"`+w.Header().Get(HeaderRequestID)+`"}`, w.Body.String())
	})

	t.Run("Should recover a panic into a 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "page:"))
	})
}

func TestRateLimit(t *testing.T) {
	limited := func(c *gin.Context) { c.String(http.StatusTooManyRequests, "slow down") }
	cfg := config.RateLimitConfig{Prefix: "test"}

	run := func(t *testing.T, client redis.UniversalClient) {
		store, err := NewRateStore(cfg, client)
		require.NoError(t, err)
		r := newEngine()
		r.Use(RateLimit(store, "login", 2, time.Minute, limited))
		r.GET("/login", func(c *gin.Context) { c.String(200, "form") })
		r.POST("/login", func(c *gin.Context) { c.String(200, "ok") })

		do := func(method string) int {
			req := httptest.NewRequest(method, "/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			return w.Code
		}
		assert.Equal(t, 200, do(http.MethodPost))
		assert.Equal(t, 200, do(http.MethodPost))
		assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
		assert.Equal(t, 200, do(http.MethodGet))
	}

	t.Run("Should limit with the memory store", func(t *testing.T) { run(t, nil) })

	t.Run("Should limit with the redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		run(t, client)
	})
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	r := newEngine()
	r.Use(Metrics(m))
	r.GET("/products/:slug", func(c *gin.Context) { c.Status(200) })

	for _, slug := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+slug, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/products/:slug", "200")))
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(200, GetRequestID(c)) })

	send := func(rid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if rid != "" {
			req.Header.Set(HeaderRequestID, rid)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should keep a well-formed incoming id", func(t *testing.T) {
		w := send("edge-42.a_b")
		assert.Equal(t, "edge-42.a_b", w.Body.String())
		assert.Equal(t, "edge-42.a_b", w.Header().Get(HeaderRequestID))
	})

	t.Run("Should replace ids that could forge log lines", func(t *testing.T) {
		for _, rid := range []string{"bad id", "x\nlevel=ERROR", strings.Repeat("a", 65)} {
			w := send(rid)
			assert.NotEqual(t, rid, w.Body.String())
			assert.Len(t, w.Body.String(), 36)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf strings.Builder
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := newEngine()
	r.Use(Logger(l, "/static/"))
	r.GET("/static/app.css", func(c *gin.Context) { c.Status(200) })
	r.GET("/products", func(c *gin.Context) { c.Status(200) })

	for _, p := range []string{"/static/app.css", "/products", "/static/missing.js"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[1], "level=INFO")
	assert.Contains(t, lines[2], "level=WARN")
}

func TestFlash(t *testing.T) {
	codec := flash.NewCodec([]byte("0123456789abcdef"), "vs_flash", false)
	r := newEngine()
	r.Use(Flash(codec, quiet))
	r.GET("/show", func(c *gin.Context) {
		if f := GetFlash(c); f != nil {
			c.String(http.StatusOK, string(f.Kind)+":"+f.Message)
			return
		}
		c.String(http.StatusOK, "none")
	})
	r.POST("/save", func(c *gin.Context) {
		QueueFlash(c, codec, view.Flash{Kind: view.FlashSuccess, Message: "저장되었습니다."})
		c.Redirect(http.StatusSeeOther, "/show")
	})

	flashCookie := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "vs_flash" {
				return ck
			}
		}
		return nil
	}

	t.Run("Should carry a queued message to the next request once", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
		ck := flashCookie(w)
		require.NotNil(t, ck)

		req := httptest.NewRequest(http.MethodGet, "/show", nil)
		req.AddCookie(ck)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, string(view.FlashSuccess)+":저장되었습니다.", w.Body.String())
		cleared := flashCookie(w)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("Should drop a tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/show", nil)
		req.AddCookie(&http.Cookie{Name: "vs_flash", Value: "e30.forged"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "none", w.Body.String())
		require.NotNil(t, flashCookie(w))
	})

	t.Run("Should leave requests without a cookie untouched", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/show", nil))
		assert.Equal(t, "none", w.Body.String())
		assert.Nil(t, flashCookie(w))
	})
}
