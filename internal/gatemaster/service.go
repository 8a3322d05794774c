// Package gatemaster — типизированный CRUD над ресурсом /gerbangs Gate API.
package gatemaster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/logger"
)

// CollectionPath — коллекция гербангов.
const CollectionPath = "/gerbangs"

var (
	ErrInvalidQuery = errors.New("page and limit must be >= 1")
	ErrMissingKey   = errors.New("both id and IdCabang are required")
)

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// ListPath строит "/gerbangs?page=P&limit=L[&NamaGerbang=...]". Фильтр добавляется,
// только если search не пуст после TrimSpace; значение кодируется целиком (без trim).
func ListPath(page, limit int, search string) string {
	path := fmt.Sprintf("%s?page=%d&limit=%d", CollectionPath, page, limit)
	if strings.TrimSpace(search) != "" {
		path += "&NamaGerbang=" + encodeComponent(search)
	}
	return path
}

// encodeComponent кодирует значение как encodeURIComponent: пробел кодируется как %20, а не "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// List возвращает страницу page (с 1) размером limit.
func (s *Service) List(ctx context.Context, page, limit int, search string) (*PagedResult, error) {
	defer logger.DeferLogDuration("gatemaster.List", time.Now())()
	if page < 1 || limit < 1 {
		return nil, ErrInvalidQuery
	}
	var env listEnvelope
	err := s.client.Request(ctx, ListPath(page, limit, search), apiclient.Options{RequiresAuth: true}, &env)
	if err != nil {
		return nil, err
	}
	return env.result(), nil
}

// Create отправляет новую запись. id в теле лишь подсказка клиента; окончательно id назначает сервер
// (конфликт приходит как 409, см. apiclient.IsConflict).
func (s *Service) Create(ctx context.Context, g GateMaster) error {
	defer logger.DeferLogDuration("gatemaster.Create", time.Now())()
	return s.client.Request(ctx, CollectionPath, apiclient.Options{
		Method:       http.MethodPost,
		Body:         g,
		RequiresAuth: true,
	}, nil)
}

// Update отправляет запись целиком; сервер находит её по id.
func (s *Service) Update(ctx context.Context, g GateMaster) error {
	defer logger.DeferLogDuration("gatemaster.Update", time.Now())()
	if g.ID <= 0 {
		return ErrMissingKey
	}
	return s.client.Request(ctx, CollectionPath, apiclient.Options{
		Method:       http.MethodPut,
		Body:         g,
		RequiresAuth: true,
	}, nil)
}

// Delete удаляет запись по паре (id, IdCabang); оба значения обязательны.
func (s *Service) Delete(ctx context.Context, id, branchID int) error {
	defer logger.DeferLogDuration("gatemaster.Delete", time.Now())()
	if id <= 0 || branchID <= 0 {
		return ErrMissingKey
	}
	return s.client.Request(ctx, CollectionPath, apiclient.Options{
		Method:       http.MethodDelete,
		Body:         deleteRequest{ID: id, BranchID: branchID},
		RequiresAuth: true,
	}, nil)
}
