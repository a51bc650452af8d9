package pages

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// AccountsPage lists accounts one server-sized page at a time.
type AccountsPage struct {
	api       Backend
	recorder  activity.Recorder
	sessionID string

	mu         sync.Mutex
	phase      Phase
	filter     domain.ListFilter
	accounts   []domain.Account
	pagination domain.Pagination
	err        error
	guard      fetchGuard
	deleting   bool
}

// AccountsView is a snapshot of the accounts page for rendering. Accounts is
// empty unless Phase is PhaseLoaded. PrevPage and NextPage neighbour the page
// the server reported, not the one requested.
type AccountsView struct {
	Phase      Phase
	Accounts   []domain.Account
	Pagination domain.Pagination
	Filter     domain.ListFilter
	PrevPage   int
	NextPage   int
	Err        error
	Deleting   bool
}

func NewAccountsPage(api Backend, recorder activity.Recorder, sessionID string) *AccountsPage {
	return &AccountsPage{
		api:        api,
		recorder:   recorder,
		sessionID:  sessionID,
		filter:     domain.ListFilter{Page: 1},
		pagination: domain.DefaultPagination,
	}
}

// Load fetches the page selected by filter. A newer Load cancels this one and
// its response is dropped with ErrSuperseded.
func (p *AccountsPage) Load(ctx context.Context, filter domain.ListFilter) error {
	if filter.Page < 1 {
		filter.Page = 1
	}

	p.mu.Lock()
	p.filter = filter
	p.phase = PhaseLoading
	p.accounts = nil
	p.err = nil
	fetchCtx, seq := p.guard.begin(ctx)
	p.mu.Unlock()

	page, err := p.api.ListAccounts(fetchCtx, filter)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.guard.current(seq) {
		telemetry.SupersededTotal.WithLabelValues("accounts_fetch").Inc()
		return ErrSuperseded
	}
	p.guard.finish(seq)

	if err != nil {
		slog.ErrorContext(ctx, "Error fetching accounts", "page", filter.Page, "error", err)
		p.phase = PhaseFailed
		p.err = err
		return fmt.Errorf("fetch accounts page %d: %w", filter.Page, err)
	}

	p.accounts = page.Results
	p.pagination = domain.PaginationFrom(*page)
	p.phase = PhaseLoaded
	return nil
}

// Reload fetches the current page again.
func (p *AccountsPage) Reload(ctx context.Context) error {
	p.mu.Lock()
	filter := p.filter
	p.mu.Unlock()
	return p.Load(ctx, filter)
}

// DeleteAll removes every account once the user confirmed, then refetches the
// current page.
func (p *AccountsPage) DeleteAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	p.mu.Lock()
	if p.deleting {
		p.mu.Unlock()
		return ErrInFlight
	}
	p.deleting = true
	p.mu.Unlock()

	err := p.api.DeleteAll(ctx)

	p.mu.Lock()
	p.deleting = false
	p.mu.Unlock()

	p.recorder.Record(ctx, activity.NewEvent(activity.KindDeleteAll, p.sessionID, err))

	if err != nil {
		telemetry.ActionsTotal.WithLabelValues("delete_all", "failed").Inc()
		slog.ErrorContext(ctx, "Error deleting accounts", "error", err)
		return fmt.Errorf("delete all accounts: %w", err)
	}
	telemetry.ActionsTotal.WithLabelValues("delete_all", "success").Inc()

	// The refetch outcome is reflected in the page phase.
	_ = p.Reload(ctx)
	return nil
}

func (p *AccountsPage) View() AccountsView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := AccountsView{
		Phase:      p.phase,
		Pagination: p.pagination,
		Filter:     p.filter,
		PrevPage:   p.pagination.CurrentPage - 1,
		NextPage:   p.pagination.CurrentPage + 1,
		Err:        p.err,
		Deleting:   p.deleting,
	}
	if p.phase == PhaseLoaded {
		v.Accounts = append([]domain.Account(nil), p.accounts...)
	}
	return v
}
