package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) serveLogin(u domain.User) {
	e.api.handle("POST /verify-user", func(r *http.Request) (int, any) {
		return http.StatusOK, domain.AuthResult{Token: "tok-1", User: &u}
	})
}

func TestLogin_Success(t *testing.T) {
	tests := []struct {
		name string
		role string
		home string
	}{
		{"customer", domain.RoleUser, "/"},
		{"admin", domain.RoleAdmin, "/admin/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.serveLogin(domain.User{FullName: "Asha", Email: "asha@example.com", Role: tt.role})

			rec := e.postForm("/login", url.Values{"email": {"Asha@Example.com"}, "password": {"secret1"}})
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.home, rec.Header().Get("Location"))

			var creds domain.Credentials
			e.api.lastBody(t, "POST /verify-user", &creds)
			assert.Equal(t, "asha@example.com", creds.Email)

			tok, _, _ := e.kv.Get(context.Background(), storage.KeyToken)
			assert.Equal(t, "tok-1", tok)
			role, _, _ := e.kv.Get(context.Background(), storage.KeyRole)
			assert.Equal(t, tt.role, role)
			assert.Equal(t, []web.Notice{{Kind: web.Success, Message: "Welcome back, Asha!"}}, e.notices(rec))
		})
	}
}

func TestLogin_BackendMessageVerbatim(t *testing.T) {
	e := newEnv(t)
	e.serveLogin(domain.User{})
	e.api.failWith("POST /verify-user", http.StatusUnauthorized, "Invalid email or password")

	rec := e.postForm("/login", url.Values{"email": {"asha@example.com"}, "password": {"wrong-pass"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, `value="asha@example.com"`)
	assert.False(t, e.sess.Get().Authenticated())
}

func TestLogin_ValidatesBeforeCallingBackend(t *testing.T) {
	e := newEnv(t)
	e.serveLogin(domain.User{})

	rec := e.postForm("/login", url.Values{"email": {"nope"}, "password": {"123"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters")
	assert.Zero(t, e.api.count("POST /verify-user"))
}

func TestLoginPage_RedirectsWhenLoggedIn(t *testing.T) {
	e := newEnv(t)
	e.login(t, "tok", &domain.User{Role: domain.RoleAdmin})

	rec := e.get("/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

// withCookies replays the cookies rec set on a new request. A cookie set
// twice keeps its last value, as a browser would.
func withCookies(rec interface{ Result() *http.Response }, req *http.Request) *http.Request {
	last := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		last[c.Name] = c
	}
	for _, c := range last {
		req.AddCookie(c)
	}
	return req
}

func TestRequestOTP_Countdown(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /send-otp", func(r *http.Request) (int, any) { return http.StatusOK, data(nil) })

	first := e.postForm("/login/otp/request", url.Values{"mobile": {"98765 43210"}})
	assert.Equal(t, http.StatusSeeOther, first.Code)
	assert.Equal(t, 1, e.api.count("POST /send-otp"))

	var sent map[string]string
	e.api.lastBody(t, "POST /send-otp", &sent)
	assert.Equal(t, "9876543210", sent["mobile"])

	// same number inside the window: no second code
	req := newFormRequest("/login/otp/request", url.Values{"mobile": {"9876543210"}})
	second := e.serve(withCookies(first, req))
	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, 1, e.api.count("POST /send-otp"))
	notices := e.notices(second)
	require.NotEmpty(t, notices)
	assert.Equal(t, web.Notice{Kind: web.Info, Message: "Please wait 60 seconds before requesting a new code."}, notices[len(notices)-1])

	page := e.serve(withCookies(first, newRequest(http.MethodGet, "/login/otp")))
	assert.Contains(t, page.Body.String(), `data-countdown="60"`)
}

func TestRequestOTP_InvalidMobile(t *testing.T) {
	e := newEnv(t)
	rec := e.postForm("/login/otp/request", url.Values{"mobile": {"12345"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []web.Notice{{Kind: web.Error, Message: "Enter a 10-digit mobile number"}}, e.notices(rec))
}

func TestVerifyOTP(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /verify-user", func(r *http.Request) (int, any) {
		var req domain.OTPLogin
		json.NewDecoder(r.Body).Decode(&req)
		if req.OTP != "123456" {
			return http.StatusUnauthorized, map[string]string{"message": "Invalid OTP"}
		}
		return http.StatusOK, domain.AuthResult{Token: "tok-otp", User: &domain.User{FullName: "Ravi", Mobile: req.Mobile, Role: domain.RoleUser}}
	})

	rec := e.postForm("/login/otp/verify", url.Values{"mobile": {"9876543210"}, "otp": {"12ab56"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, e.api.count("POST /verify-user"))

	rec = e.postForm("/login/otp/verify", url.Values{"mobile": {"9876543210"}, "otp": {"000000"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OTP")
	assert.NotContains(t, rec.Body.String(), "000000")

	rec = e.postForm("/login/otp/verify", url.Values{"mobile": {"9876543210"}, "otp": {"123456"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "tok-otp", e.sess.Get().Token)
	mobile, _, _ := e.kv.Get(context.Background(), storage.KeyUserMobile)
	assert.Equal(t, "9876543210", mobile)
}

func TestRegister(t *testing.T) {
	form := url.Values{
		"fullName":        {"Asha Rao"},
		"email":           {"asha@example.com"},
		"mobile":          {"9876543210"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	}

	t.Run("mismatched passwords", func(t *testing.T) {
		e := newEnv(t)
		bad := url.Values{}
		for k, v := range form {
			bad[k] = v
		}
		bad.Set("confirmPassword", "secret2")
		rec := e.postForm("/register", bad)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Passwords do not match")
		assert.Contains(t, rec.Body.String(), `value="Asha Rao"`)
	})

	t.Run("account needs a login", func(t *testing.T) {
		e := newEnv(t)
		e.api.handle("POST /user-register", func(r *http.Request) (int, any) {
			return http.StatusCreated, domain.AuthResult{Message: "Registered. Please log in."}
		})
		rec := e.postForm("/register", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Equal(t, []web.Notice{{Kind: web.Success, Message: "Registered. Please log in."}}, e.notices(rec))
		assert.False(t, e.sess.Get().Authenticated())

		var reg domain.Registration
		e.api.lastBody(t, "POST /user-register", &reg)
		assert.Equal(t, "Asha Rao", reg.FullName)
	})

	t.Run("logged in straight away", func(t *testing.T) {
		e := newEnv(t)
		e.api.handle("POST /user-register", func(r *http.Request) (int, any) {
			return http.StatusCreated, domain.AuthResult{Token: "tok-new", User: &domain.User{FullName: "Asha Rao", Role: domain.RoleUser}}
		})
		rec := e.postForm("/register", form)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.True(t, e.sess.Get().Authenticated())
	})

	t.Run("backend conflict", func(t *testing.T) {
		e := newEnv(t)
		e.api.handle("POST /user-register", func(r *http.Request) (int, any) { return http.StatusCreated, nil })
		e.api.failWith("POST /user-register", http.StatusConflict, "Email already registered")
		rec := e.postForm("/register", form)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email already registered")
	})
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	e.login(t, "tok", &domain.User{FullName: "Asha", Mobile: "9876543210"})

	rec := e.postForm("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, e.sess.Get().Authenticated())
	_, ok, _ := e.kv.Get(context.Background(), storage.KeyToken)
	assert.False(t, ok)
	assert.Equal(t, []web.Notice{{Kind: web.Info, Message: NoticeLoggedOut}}, e.notices(rec))

	// a second logout is harmless
	assert.Equal(t, http.StatusSeeOther, e.postForm("/logout", nil).Code)
}
