package pages

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend is an in-memory Backend. Hooks let tests block or fail calls.
type fakeBackend struct {
	mu sync.Mutex

	accounts  map[string]*domain.Account
	pages     map[int]*domain.AccountPage
	results   []domain.SearchResult
	transfers []domain.TransferRequest
	imports   []string
	deletes   int

	listHook     func(ctx context.Context, filter domain.ListFilter) error
	transferHook func(req domain.TransferRequest) error
	importErr    error
	deleteErr    error
	getErr       error
	getCalls     []string
	listCalls    []int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts: make(map[string]*domain.Account),
		pages:    make(map[int]*domain.AccountPage),
	}
}

func (f *fakeBackend) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	acc, ok := f.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeBackend) SearchAccounts(ctx context.Context, query string) ([]domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, nil
}

func (f *fakeBackend) ListAccounts(ctx context.Context, filter domain.ListFilter) (*domain.AccountPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, filter.Page)
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, filter); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[filter.Page]
	if !ok {
		return &domain.AccountPage{Results: []domain.Account{}, TotalPages: 1, CurrentPage: filter.Page}, nil
	}
	return page, nil
}

func (f *fakeBackend) Transfer(ctx context.Context, req domain.TransferRequest) error {
	f.mu.Lock()
	hook := f.transferHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(req); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers = append(f.transfers, req)
	if from, ok := f.accounts[req.FromAccount]; ok {
		from.Balance = from.Balance.Sub(req.Amount)
	}
	return nil
}

func (f *fakeBackend) ImportCSV(ctx context.Context, filename string, content io.Reader) (*domain.ImportResult, error) {
	data, _ := io.ReadAll(content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports = append(f.imports, filename+":"+string(data))
	if f.importErr != nil {
		return nil, f.importErr
	}
	return &domain.ImportResult{Message: "Successfully imported 1 accounts"}, nil
}

func (f *fakeBackend) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes++
	f.pages = make(map[int]*domain.AccountPage)
	return nil
}

type recorded struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recorded) Record(_ context.Context, ev activity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorded) all() []activity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]activity.Event(nil), r.events...)
}

func strptr(s string) *string { return &s }
