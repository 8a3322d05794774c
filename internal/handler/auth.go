package handler

import (
	"net/http"
	"strings"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/auth"
	"github.com/gateadmin/internal/guard"
	"github.com/gateadmin/internal/live"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
)

const signInFailed = "Sign in failed. Check your username and password."

type AuthHandler struct {
	api   *apiclient.Client
	pages *Renderer
	hub   *live.Hub
}

// NewAuthHandler — вход и выход браузера. hub может быть nil (без живого канала).
func NewAuthHandler(api *apiclient.Client, pages *Renderer, hub *live.Hub) *AuthHandler {
	return &AuthHandler{api: api, pages: pages, hub: hub}
}

type signInPage struct {
	page
	Username string
	Remember bool
	Error    string
}

// SignInPage показывает форму; уже вошедшего пользователя отправляет на главную.
func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if state, _ := guard.Check(r.Context(), sessionStore(r)); state == guard.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.pages.Render(w, http.StatusOK, "signin", signInPage{page: page{Title: "Sign In"}})
}

// SignIn отправляет учётные данные в Gate API. Неудача входа (status=false) —
// форма с сообщением сервера; успех — токен и профиль в хранилище браузера.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	form := signInPage{
		page:     page{Title: "Sign In"},
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Remember: isChecked(r.PostFormValue("remember")),
	}
	password := r.PostFormValue("password")
	if form.Username == "" || password == "" {
		form.Error = "Username and password are required."
		h.pages.Render(w, http.StatusBadRequest, "signin", form)
		return
	}

	svc := auth.NewService(h.api, sessionStore(r))
	resp, err := svc.SignIn(r.Context(), auth.Credentials{Username: form.Username, Password: password})
	if err != nil {
		logger.Errorf("signin user=%s: %v", form.Username, err)
		form.Error = apiclient.Message(err, apiclient.DefaultErrorMessage)
		h.pages.Render(w, statusFor(err), "signin", form)
		return
	}
	if !resp.OK() {
		form.Error = resp.Message
		if form.Error == "" {
			form.Error = signInFailed
		}
		h.pages.Render(w, http.StatusUnauthorized, "signin", form)
		return
	}
	if err := svc.Persist(r.Context(), resp, form.Remember); err != nil {
		logger.Errorf("signin persist sid=%s: %v", middleware.MaskSessionID(middleware.GetSessionID(r.Context())), err)
		form.Error = apiclient.DefaultErrorMessage
		h.pages.Render(w, http.StatusInternalServerError, "signin", form)
		return
	}
	logger.Infof("signin user=%s sid=%s token=%s", form.Username,
		middleware.MaskSessionID(middleware.GetSessionID(r.Context())), middleware.MaskToken(resp.Token))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignOut очищает сессию браузера и закрывает его вкладки Gate Master.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sid := middleware.GetSessionID(r.Context())
	if err := auth.NewService(h.api, sessionStore(r)).SignOut(r.Context()); err != nil {
		logger.Errorf("signout sid=%s: %v", middleware.MaskSessionID(sid), err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if h.hub != nil {
		h.hub.SignOutSession(sid)
	}
	http.Redirect(w, r, guard.SignInPath, http.StatusSeeOther)
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
