package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/search"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// TransferForm is what the user typed into the transfer form. Recipient is
// the hidden account id, SearchText the visible recipient field.
type TransferForm struct {
	Recipient  string
	SearchText string
	Amount     string
}

// DetailPage shows one account and its transfer form.
type DetailPage struct {
	api       Backend
	recorder  activity.Recorder
	sessionID string
	quiet     time.Duration

	mu           sync.Mutex
	id           string
	phase        Phase
	account      *domain.Account
	err          error
	guard        fetchGuard
	searcher     *search.Searcher
	form         TransferForm
	dropdownOpen bool
	transferring bool
}

// DetailView is a snapshot of the detail page for rendering.
type DetailView struct {
	ID              string
	Phase           Phase
	Account         *domain.Account
	Err             error
	Form            TransferForm
	Results         []domain.SearchResult
	DropdownVisible bool
	Transferring    bool
	CanSubmit       bool
}

func NewDetailPage(api Backend, recorder activity.Recorder, sessionID string, searchQuiet time.Duration) *DetailPage {
	return &DetailPage{
		api:       api,
		recorder:  recorder,
		sessionID: sessionID,
		quiet:     searchQuiet,
		searcher:  search.New(api, searchQuiet),
	}
}

// Load fetches account id. Switching to a different id discards the previous
// account, search and form state first.
func (p *DetailPage) Load(ctx context.Context, id string) error {
	p.mu.Lock()
	if id != p.id {
		p.searcher.Reset()
		p.id = id
		p.account = nil
		p.phase = PhaseIdle
		p.form = TransferForm{}
		p.dropdownOpen = false
		p.searcher = search.New(p.api, p.quiet)
	}
	p.err = nil
	fetchCtx, seq := p.guard.begin(ctx)
	p.mu.Unlock()

	acc, err := p.api.GetAccount(fetchCtx, id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.guard.current(seq) {
		telemetry.SupersededTotal.WithLabelValues("account_fetch").Inc()
		return ErrSuperseded
	}
	p.guard.finish(seq)

	if err != nil {
		slog.ErrorContext(ctx, "Error fetching account details", "account_id", id, "error", err)
		if p.account == nil {
			p.phase = PhaseFailed
		}
		p.err = err
		return fmt.Errorf("fetch account %s: %w", id, err)
	}

	p.account = acc
	p.phase = PhaseLoaded
	return nil
}

// ID returns the account id the page currently shows.
func (p *DetailPage) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Search records the typed recipient text and runs a debounced search.
// Superseded queries return search.ErrSuperseded.
func (p *DetailPage) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	p.mu.Lock()
	p.form.SearchText = query
	p.dropdownOpen = true
	searcher := p.searcher
	p.mu.Unlock()

	return searcher.Search(ctx, query)
}

// Select picks a search result as the transfer recipient and closes the
// dropdown.
func (p *DetailPage) Select(result domain.SearchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.form.Recipient = result.ID
	p.form.SearchText = result.Name
	p.dropdownOpen = false
}

// SetAmount records the typed amount.
func (p *DetailPage) SetAmount(amount string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form.Amount = amount
}

// DropdownVisible reports whether the recipient dropdown shows anything.
func (p *DetailPage) DropdownVisible() bool {
	p.mu.Lock()
	open, searcher := p.dropdownOpen, p.searcher
	p.mu.Unlock()
	return open && len(searcher.Results()) > 0
}

// CanSubmit reports whether the transfer button is enabled.
func (p *DetailPage) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canSubmitLocked()
}

func (p *DetailPage) canSubmitLocked() bool {
	return p.form.Recipient != "" && p.form.Amount != "" && !p.transferring
}

// Transfer submits the form as it stands, debiting fromID. It fails with
// ErrWrongAccount when the page shows another account. On success the account
// is refetched and the form cleared; on failure the form keeps the user's input.
func (p *DetailPage) Transfer(ctx context.Context, fromID string) error {
	return p.submit(ctx, fromID, nil)
}

// SubmitForm replaces the form with the posted one and transfers in one step,
// so a concurrent request cannot change the recipient or amount in between.
func (p *DetailPage) SubmitForm(ctx context.Context, fromID string, form TransferForm) error {
	return p.submit(ctx, fromID, &form)
}

func (p *DetailPage) submit(ctx context.Context, fromID string, form *TransferForm) error {
	p.mu.Lock()
	if p.account == nil {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	if fromID != p.id {
		p.mu.Unlock()
		return ErrWrongAccount
	}
	if p.transferring {
		p.mu.Unlock()
		return ErrInFlight
	}
	if form != nil {
		p.form = *form
		p.dropdownOpen = false
	}
	if !p.canSubmitLocked() {
		p.mu.Unlock()
		return ErrIncomplete
	}
	amount, err := domain.ParseAmount(p.form.Amount)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	req := domain.TransferRequest{
		FromAccount: fromID,
		ToAccount:   p.form.Recipient,
		Amount:      amount,
	}
	p.transferring = true
	p.mu.Unlock()

	err = p.api.Transfer(ctx, req)

	p.mu.Lock()
	p.transferring = false
	p.mu.Unlock()

	ev := activity.NewEvent(activity.KindTransfer, p.sessionID, err)
	ev.AccountID = req.FromAccount
	ev.ToAccount = req.ToAccount
	ev.Amount = req.Amount.StringFixed(2)
	p.recorder.Record(ctx, ev)

	if err != nil {
		telemetry.ActionsTotal.WithLabelValues("transfer", "failed").Inc()
		slog.ErrorContext(ctx, "Error making transfer", "from", req.FromAccount, "to", req.ToAccount, "error", err)
		return fmt.Errorf("transfer: %w", err)
	}
	telemetry.ActionsTotal.WithLabelValues("transfer", "success").Inc()

	if err := p.Load(ctx, req.FromAccount); err != nil && !errors.Is(err, ErrSuperseded) {
		slog.WarnContext(ctx, "Refetch after transfer failed", "account_id", req.FromAccount, "error", err)
	}

	p.mu.Lock()
	p.form = TransferForm{}
	p.dropdownOpen = false
	searcher := p.searcher
	p.mu.Unlock()
	searcher.Reset()
	return nil
}

func (p *DetailPage) View() DetailView {
	p.mu.Lock()
	v := DetailView{
		ID:           p.id,
		Phase:        p.phase,
		Err:          p.err,
		Form:         p.form,
		Transferring: p.transferring,
		CanSubmit:    p.canSubmitLocked(),
	}
	if p.account != nil {
		acc := *p.account
		v.Account = &acc
	}
	open, searcher := p.dropdownOpen, p.searcher
	p.mu.Unlock()

	v.Results = searcher.Results()
	v.DropdownVisible = open && len(v.Results) > 0
	return v
}
