// Package guard решает, пускать ли на защищённый маршрут: есть токен в хранилище — да.
// Токен не проверяется по сети и не проверяется на истечение.
package guard

import (
	"context"

	"github.com/gateadmin/internal/storage"
)

// State — результат проверки.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// SignInPath — куда отправлять неавторизованную навигацию.
const SignInPath = "/signin"

// Check читает токен из хранилища. Ошибка хранилища возвращается вместе с Unauthenticated.
func Check(ctx context.Context, store storage.SessionStore) (State, error) {
	token, err := storage.Token(ctx, store)
	if err != nil {
		return Unauthenticated, err
	}
	if token == "" {
		return Unauthenticated, nil
	}
	return Authenticated, nil
}
