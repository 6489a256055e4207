package handlers

import (
	"fmt"
	"net/http"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/utils"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

const NoticeLoggedOut = "You have been logged out."

// redirectIfLoggedIn sends an authenticated visitor away from the login and
// register forms.
func (h *Handlers) redirectIfLoggedIn(w http.ResponseWriter, r *http.Request) bool {
	s := currentSession(r)
	if s == nil || !s.Get().Authenticated() {
		return false
	}
	h.redirect(w, r, session.HomeFor(s.Get().User))
	return true
}

func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}
	h.page(w, r, "login", web.PageData{Title: "Log in", Form: map[string]string{}})
}

// Login keeps the email on failure so the visitor only retypes the password.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := utils.NormalizeEmail(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	form := map[string]string{"email": email}

	errs := utils.FieldErrors{}
	errs.Require("email", email, "Email is required")
	errs.Check("email", utils.IsValidEmail(email), "Enter a valid email address")
	errs.Check("password", utils.IsValidPassword(password), "Password must be at least 6 characters")
	if !errs.Valid() {
		h.render.Render(w, r, http.StatusUnprocessableEntity, "login", web.PageData{Title: "Log in", Form: form, Errors: errs})
		return
	}

	s := currentSession(r)
	u, err := s.Login(r.Context(), domain.Credentials{Email: email, Password: password})
	if err != nil {
		logger.InfoContext(r.Context(), "Login failed", "error", err)
		h.render.Render(w, r, http.StatusUnauthorized, "login", web.PageData{
			Title:   "Log in",
			Form:    form,
			Notices: []web.Notice{{Kind: web.Error, Message: userMessage(err)}},
		})
		return
	}

	h.notify(w, r, web.Success, fmt.Sprintf("Welcome back, %s!", u.DisplayName()))
	h.redirect(w, r, session.HomeFor(u))
}

type otpData struct {
	Mobile    string
	Remaining int
	Sent      bool
}

func (h *Handlers) otpPage(w http.ResponseWriter, r *http.Request, status int, notices []web.Notice) {
	cd := h.browser.OTP(r)
	h.render.Render(w, r, status, "otp", web.PageData{
		Title:   "Log in with OTP",
		Notices: notices,
		Data: otpData{
			Mobile:    cd.Mobile,
			Remaining: cd.Remaining(h.now()),
			Sent:      cd.Mobile != "",
		},
	})
}

func (h *Handlers) OTPPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}
	h.otpPage(w, r, http.StatusOK, nil)
}

// RequestOTP sends a code unless one went to the same number less than a
// minute ago.
func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	mobile := utils.NormalizeMobile(r.PostFormValue("mobile"))
	if !utils.IsValidMobile(mobile) {
		h.notify(w, r, web.Error, "Enter a 10-digit mobile number")
		h.redirect(w, r, "/login/otp")
		return
	}

	now := h.now()
	if cd := h.browser.OTP(r); cd.Mobile == mobile && !cd.Expired(now) {
		h.notify(w, r, web.Info, fmt.Sprintf("Please wait %d seconds before requesting a new code.", cd.Remaining(now)))
		h.redirect(w, r, "/login/otp")
		return
	}

	if err := currentSession(r).RequestOTP(r.Context(), mobile); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.redirect(w, r, "/login/otp")
		return
	}

	h.browser.StartOTP(w, r, mobile, now)
	h.notify(w, r, web.Success, "We sent a 6-digit code to your mobile.")
	h.redirect(w, r, "/login/otp")
}

// VerifyOTP clears the typed digits on any failure.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cd := h.browser.OTP(r)
	mobile := utils.NormalizeMobile(r.PostFormValue("mobile"))
	if mobile == "" {
		mobile = cd.Mobile
	}
	otp := r.PostFormValue("otp")

	if !utils.IsValidMobile(mobile) {
		h.otpPage(w, r, http.StatusUnprocessableEntity, []web.Notice{{Kind: web.Error, Message: "Request a code first"}})
		return
	}
	if !utils.IsValidOTP(otp) {
		h.otpPage(w, r, http.StatusUnprocessableEntity, []web.Notice{{Kind: web.Error, Message: "Enter the 6-digit code"}})
		return
	}

	u, err := currentSession(r).LoginWithOTP(r.Context(), domain.OTPLogin{Mobile: mobile, OTP: otp})
	if err != nil {
		h.otpPage(w, r, http.StatusUnauthorized, []web.Notice{{Kind: web.Error, Message: userMessage(err)}})
		return
	}

	h.browser.ClearOTP(w, r)
	h.notify(w, r, web.Success, fmt.Sprintf("Welcome, %s!", u.DisplayName()))
	h.redirect(w, r, session.HomeFor(u))
}

var registerFields = []string{"fullName", "email", "mobile"}

func (h *Handlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}
	h.page(w, r, "register", web.PageData{Title: "Create an account", Form: map[string]string{}})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := formValues(r, registerFields...)
	form["email"] = utils.NormalizeEmail(form["email"])
	form["mobile"] = utils.NormalizeMobile(form["mobile"])
	password := r.PostFormValue("password")

	errs := utils.FieldErrors{}
	errs.Require("fullName", form["fullName"], "Full name is required")
	errs.Require("email", form["email"], "Email is required")
	errs.Check("email", utils.IsValidEmail(form["email"]), "Enter a valid email address")
	errs.Check("mobile", utils.IsValidMobile(form["mobile"]), "Enter a 10-digit mobile number")
	errs.Check("password", utils.IsValidPassword(password), "Password must be at least 6 characters")
	if password != r.PostFormValue("confirmPassword") {
		errs.Check("confirmPassword", false, "Passwords do not match")
	}
	if !errs.Valid() {
		h.render.Render(w, r, http.StatusUnprocessableEntity, "register", web.PageData{Title: "Create an account", Form: form, Errors: errs})
		return
	}

	s := currentSession(r)
	res, err := s.Register(r.Context(), domain.Registration{
		FullName: form["fullName"],
		Email:    form["email"],
		Mobile:   form["mobile"],
		Password: password,
	})
	if err != nil {
		h.render.Render(w, r, http.StatusOK, "register", web.PageData{
			Title:   "Create an account",
			Form:    form,
			Notices: []web.Notice{{Kind: web.Error, Message: userMessage(err)}},
		})
		return
	}

	if st := s.Get(); st.Authenticated() {
		h.notify(w, r, web.Success, "Your account is ready.")
		h.redirect(w, r, session.HomeFor(st.User))
		return
	}

	msg := "Registration successful. Please log in."
	if res != nil && res.Message != "" {
		msg = res.Message
	}
	h.notify(w, r, web.Success, msg)
	h.redirect(w, r, "/login")
}

// Logout always lands on the home page with a neutral notice.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if s := currentSession(r); s != nil {
		if err := s.Logout(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "Logout failed", "error", err)
		}
	}
	h.notify(w, r, web.Info, NoticeLoggedOut)
	h.redirect(w, r, "/")
}
