// Package listctl — контроллер экрана Gate Master: страница, размер страницы, поиск
// с задержкой, модальные окна создания/правки/удаления и обновление списка после мутаций.
//
// Один контроллер обслуживает одного зрителя (WebSocket-соединение или команду CLI).
// Методы безопасны для конкурентного вызова; сетевые вызовы идут без удержания мьютекса,
// а устаревшие ответы списка отбрасываются по номеру запроса.
package listctl

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/pagination"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultLimit    = 10
)

var (
	ErrBusy        = errors.New("a submit is already in progress")
	ErrNoSelection = errors.New("no matching row on the current page")
	ErrNoModal     = errors.New("no form is open")
	ErrClosed      = errors.New("controller is closed")
)

// Resource — операции над коллекцией; *gatemaster.Service реализует его.
type Resource interface {
	List(ctx context.Context, page, limit int, search string) (*gatemaster.PagedResult, error)
	Create(ctx context.Context, g gatemaster.GateMaster) error
	Update(ctx context.Context, g gatemaster.GateMaster) error
	Delete(ctx context.Context, id, branchID int) error
}

// Timer — отменяемая отложенная задача; *time.Timer реализует его.
type Timer interface {
	Stop() bool
}

// AfterFunc планирует f через d. В тестах подменяется ручными часами.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options — настройки контроллера; нулевые значения заменяются значениями по умолчанию.
type Options struct {
	// Page, Limit и Search — начальный запрос (например, из query string страницы).
	Page         int
	Limit        int
	Search       string
	LimitOptions []int
	Debounce     time.Duration
	AfterFunc    AfterFunc
	// OnChange получает снимок после каждого перехода. Вызывается под мьютексом
	// контроллера в порядке переходов, поэтому не должен вызывать методы контроллера.
	OnChange func(State)
}

type Controller struct {
	res       Resource
	ctx       context.Context
	cancel    context.CancelFunc
	debounce  time.Duration
	afterFunc AfterFunc
	onChange  func(State)
	limitOpts []int

	mu         sync.Mutex
	closed     bool
	seq        uint64
	searchGen  uint64
	timer      Timer
	status     Status
	rows       []gatemaster.GateMaster
	page       int
	limit      int
	search     string
	committed  string
	totalItems int
	totalPages int
	listErr    string
	maxID      int

	modal      Modal
	draft      Draft
	selected   *gatemaster.GateMaster
	submitting bool
	modalErr   string
}

// New создаёт контроллер в состоянии idle. ctx ограничивает все запросы контроллера;
// Close отменяет его.
func New(ctx context.Context, res Resource, opts Options) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		res:       res,
		ctx:       ctx,
		cancel:    cancel,
		debounce:  opts.Debounce,
		afterFunc: opts.AfterFunc,
		onChange:  opts.OnChange,
		limitOpts: opts.LimitOptions,
		status:    StatusIdle,
		page:      opts.Page,
		limit:     opts.Limit,
		search:    opts.Search,
		committed: opts.Search,
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.afterFunc == nil {
		c.afterFunc = stdAfterFunc
	}
	if len(c.limitOpts) == 0 {
		c.limitOpts = pagination.LimitOptions
	}
	if c.page < 1 {
		c.page = 1
	}
	if c.limit < 1 {
		c.limit = DefaultLimit
	}
	return c
}

// State возвращает текущий снимок.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Load — первичная загрузка (монтирование экрана).
func (c *Controller) Load() error {
	return c.fetch()
}

// Refresh повторяет текущий запрос (ручной retry после ошибки).
func (c *Controller) Refresh() error {
	return c.fetch()
}

// SetPage переходит на страницу page (>= 1).
func (c *Controller) SetPage(page int) error {
	if page < 1 {
		return gatemaster.ErrInvalidQuery
	}
	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
	return c.fetch()
}

// SetLimit меняет размер страницы и сбрасывает страницу на 1.
func (c *Controller) SetLimit(limit int) error {
	if limit < 1 {
		return gatemaster.ErrInvalidQuery
	}
	c.mu.Lock()
	c.limit = limit
	c.page = 1
	c.mu.Unlock()
	return c.fetch()
}

// Search обновляет видимое значение поиска сразу, а запрос откладывает: каждое
// нажатие отменяет предыдущий таймер. По срабатыванию: страница 1 и запрос
// с последним значением.
func (c *Controller) Search(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.search = value
	if c.timer != nil {
		c.timer.Stop()
	}
	c.searchGen++
	gen := c.searchGen
	c.timer = c.afterFunc(c.debounce, func() { c.commitSearch(gen, value) })
	c.publishLocked()
}

func (c *Controller) commitSearch(gen uint64, value string) {
	c.mu.Lock()
	// таймер мог быть заменён между срабатыванием и захватом мьютекса
	if c.closed || gen != c.searchGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.committed = value
	c.page = 1
	c.mu.Unlock()
	if err := c.fetch(); err != nil {
		logger.Debugf("listctl: search %q: %v", value, err)
	}
}

// fetch загружает страницу по текущему запросу. Ошибка сохраняется в состоянии
// и возвращается вызывающему; ответ, устаревший к моменту прихода, игнорируется.
func (c *Controller) fetch() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	seq := c.seq
	page, limit, search := c.page, c.limit, c.committed
	c.status = StatusLoading
	c.listErr = ""
	c.publishLocked()
	c.mu.Unlock()

	res, err := c.res.List(c.ctx, page, limit, search)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		logger.Debugf("listctl: drop stale list response seq=%d latest=%d", seq, c.seq)
		return nil
	}
	if err != nil {
		c.status = StatusError
		c.listErr = apiclient.Message(err, apiclient.DefaultErrorMessage)
		c.publishLocked()
		return err
	}
	c.status = StatusSuccess
	c.rows = res.Rows
	c.totalItems = res.Count
	c.totalPages = res.TotalPages
	c.maxID = res.MaxID()
	c.publishLocked()
	return nil
}

// OpenCreate открывает форму создания; id предзаполняется как max(id на странице)+1.
// Это только подсказка: окончательный id за сервером.
// Пока идёт отправка формы, окно не меняется (ErrBusy).
func (c *Controller) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	c.modal = ModalCreate
	c.selected = nil
	c.modalErr = ""
	c.draft = Draft{ID: strconv.Itoa(c.maxID + 1)}
	c.publishLocked()
	return nil
}

// OpenUpdate открывает форму правки строки с ключом key ("IdCabang-id").
func (c *Controller) OpenUpdate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	row, ok := c.findLocked(key)
	if !ok {
		return ErrNoSelection
	}
	c.modal = ModalUpdate
	c.selected = &row
	c.modalErr = ""
	c.draft = draftFrom(row)
	c.publishLocked()
	return nil
}

// OpenDelete открывает подтверждение удаления строки с ключом key.
func (c *Controller) OpenDelete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	row, ok := c.findLocked(key)
	if !ok {
		return ErrNoSelection
	}
	c.modal = ModalDelete
	c.selected = &row
	c.modalErr = ""
	c.draft = Draft{}
	c.publishLocked()
	return nil
}

// CloseModal закрывает окно и отбрасывает черновик. Во время отправки игнорируется.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return
	}
	c.resetModalLocked()
	c.publishLocked()
}

// UpdateDraft меняет одно поле черновика открытой формы.
func (c *Controller) UpdateDraft(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != ModalCreate && c.modal != ModalUpdate {
		return ErrNoModal
	}
	if err := c.draft.set(field, value); err != nil {
		return err
	}
	c.publishLocked()
	return nil
}

// Submit отправляет форму: создание или правку в зависимости от открытого окна.
func (c *Controller) Submit() error {
	c.mu.Lock()
	mode := c.modal
	if mode != ModalCreate && mode != ModalUpdate {
		c.mu.Unlock()
		return ErrNoModal
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	rec, err := c.draft.record()
	if err != nil {
		c.modalErr = err.Error()
		c.publishLocked()
		c.mu.Unlock()
		return err
	}
	c.submitting = true
	c.modalErr = ""
	c.publishLocked()
	c.mu.Unlock()

	if mode == ModalCreate {
		err = c.res.Create(c.ctx, rec)
	} else {
		err = c.res.Update(c.ctx, rec)
	}
	return c.finishMutation(mode, err)
}

// ConfirmDelete удаляет выбранную строку по паре (id, IdCabang).
func (c *Controller) ConfirmDelete() error {
	c.mu.Lock()
	if c.modal != ModalDelete || c.selected == nil {
		c.mu.Unlock()
		return ErrNoSelection
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	row := *c.selected
	c.submitting = true
	c.modalErr = ""
	c.publishLocked()
	c.mu.Unlock()

	err := c.res.Delete(c.ctx, row.ID, row.BranchID)
	return c.finishMutation(ModalDelete, err)
}

// finishMutation: успех — окно закрывается, список перезапрашивается с тем же
// page/limit/search; ошибка — сообщение в окне, окно остаётся открытым.
// Конфликт при создании (409, id занят) — перезапрос списка и новая подсказка id.
func (c *Controller) finishMutation(mode Modal, err error) error {
	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.modalErr = apiclient.Message(err, apiclient.DefaultErrorMessage)
		c.publishLocked()
		c.mu.Unlock()
		if mode == ModalCreate && apiclient.IsConflict(err) {
			if ferr := c.fetch(); ferr == nil {
				c.reseedID()
			}
		}
		return err
	}
	c.resetModalLocked()
	c.publishLocked()
	c.mu.Unlock()
	if ferr := c.fetch(); ferr != nil {
		logger.Debugf("listctl: refresh after %s: %v", mode, ferr)
	}
	return nil
}

func (c *Controller) reseedID() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != ModalCreate {
		return
	}
	c.draft.ID = strconv.Itoa(c.maxID + 1)
	c.publishLocked()
}

// Close отменяет отложенный поиск и все запросы контроллера. Повторный вызов безопасен.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) findLocked(key string) (gatemaster.GateMaster, bool) {
	for _, g := range c.rows {
		if g.Key() == key {
			return g, true
		}
	}
	return gatemaster.GateMaster{}, false
}

func (c *Controller) resetModalLocked() {
	c.modal = ModalNone
	c.draft = Draft{}
	c.selected = nil
	c.modalErr = ""
}

func (c *Controller) publishLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}

func (c *Controller) snapshotLocked() State {
	rows := make([]gatemaster.GateMaster, len(c.rows))
	copy(rows, c.rows)
	var selected *gatemaster.GateMaster
	if c.selected != nil {
		s := *c.selected
		selected = &s
	}
	from, to := pagination.Range(c.page, c.limit, c.totalItems)
	return State{
		Status:       c.status,
		Rows:         rows,
		Page:         c.page,
		Limit:        c.limit,
		Search:       c.search,
		Committed:    c.committed,
		TotalItems:   c.totalItems,
		TotalPages:   c.totalPages,
		Error:        c.listErr,
		Modal:        c.modal,
		Draft:        c.draft,
		Selected:     selected,
		Submitting:   c.submitting,
		ModalError:   c.modalErr,
		From:         from,
		To:           to,
		Pages:        pagination.Pages(c.page, c.totalPages),
		HasPrev:      pagination.HasPrev(c.page),
		HasNext:      pagination.HasNext(c.page, c.totalPages),
		LimitOptions: append([]int(nil), c.limitOpts...),
	}
}
