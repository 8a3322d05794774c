// Package auth — вход и выход. Сервис не держит состояния: единственный источник
// правды о сессии — SessionStore.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/storage"
)

// LoginPath — эндпоинт входа Gate API.
const LoginPath = "/auth/login"

// Credentials — тело POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse — ответ сервера как есть. Неудача входа приходит с status=false
// в ответе 200 и ошибкой не считается.
type SignInResponse struct {
	Code       int             `json:"code"`
	IsLoggedIn int             `json:"is_logged_in"`
	Status     bool            `json:"status"`
	Token      string          `json:"token,omitempty"`
	Message    string          `json:"message,omitempty"`
	User       json.RawMessage `json:"user,omitempty"`
}

// OK — сервер подтвердил вход и выдал токен.
func (r *SignInResponse) OK() bool {
	return r != nil && r.Status && r.Token != ""
}

// Session — сохранённая сессия.
type Session struct {
	Token      string
	User       json.RawMessage
	RememberMe bool
}

type Service struct {
	client *apiclient.Client
	store  storage.SessionStore
}

// NewService связывает клиент API с хранилищем сессии одного браузера или CLI.
func NewService(client *apiclient.Client, store storage.SessionStore) *Service {
	return &Service{client: client, store: store}
}

// SignIn отправляет учётные данные и возвращает ответ сервера без изменений.
// Ошибка возвращается только при сбое транспорта или статусе не 2xx.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*SignInResponse, error) {
	var resp SignInResponse
	err := s.client.Request(ctx, LoginPath, apiclient.Options{
		Method: http.MethodPost,
		Body:   creds,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Persist сохраняет результат входа: токен и профиль, если они есть, и флаг remember me.
func (s *Service) Persist(ctx context.Context, resp *SignInResponse, rememberMe bool) error {
	if resp == nil {
		return nil
	}
	if resp.Token != "" {
		if err := s.store.Set(ctx, storage.KeyAuthToken, resp.Token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	if len(resp.User) > 0 && string(resp.User) != "null" {
		if err := s.store.Set(ctx, storage.KeyUser, string(resp.User)); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
	}
	if rememberMe {
		if err := s.store.Set(ctx, storage.KeyRememberMe, "true"); err != nil {
			return fmt.Errorf("store remember me: %w", err)
		}
	}
	return nil
}

// SignOut удаляет authToken, user и rememberMe. Идемпотентен; прочие ключи не трогает.
func (s *Service) SignOut(ctx context.Context) error {
	return s.store.Remove(ctx, storage.SessionKeys...)
}

// Current читает сессию из хранилища; nil, если пользователь не вошёл.
func (s *Service) Current(ctx context.Context) (*Session, error) {
	token, err := storage.Token(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	sess := &Session{Token: token}
	if raw, err := s.store.Get(ctx, storage.KeyUser); err != nil {
		return nil, err
	} else if raw != "" && json.Valid([]byte(raw)) {
		sess.User = json.RawMessage(raw)
	}
	remember, err := s.store.Get(ctx, storage.KeyRememberMe)
	if err != nil {
		return nil, err
	}
	sess.RememberMe = remember == "true"
	return sess, nil
}

// DisplayName — имя из профиля (name, username, email), иначе "".
func (s *Session) DisplayName() string {
	if s == nil || len(s.User) == 0 {
		return ""
	}
	var u struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(s.User, &u); err != nil {
		return ""
	}
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
