// Package pages holds the state of the portal's three pages for one browser
// session. Each page owns its state; nothing is shared between pages.
package pages

import (
	"context"
	"errors"
	"io"

	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/search"
)

var (
	ErrInFlight     = errors.New("a request is already in progress")
	ErrMissingFile  = errors.New("no file selected")
	ErrIncomplete   = errors.New("recipient and amount are required")
	ErrNotLoaded    = errors.New("account is not loaded")
	ErrSuperseded   = errors.New("superseded by a newer request")
	ErrNotConfirmed = errors.New("action not confirmed")
	ErrWrongAccount = errors.New("page shows a different account")
)

// Backend is the accounts API as the pages use it.
type Backend interface {
	search.Backend
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.ListFilter) (*domain.AccountPage, error)
	Transfer(ctx context.Context, req domain.TransferRequest) error
	ImportCSV(ctx context.Context, filename string, content io.Reader) (*domain.ImportResult, error)
	DeleteAll(ctx context.Context) error
}

// Phase tags what a page currently shows.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// fetchGuard hands out one cancellable context per fetch. Starting a fetch
// cancels the previous one, and only the latest fetch may publish its result.
// Callers serialize access with the owning page's mutex.
type fetchGuard struct {
	seq    uint64
	cancel context.CancelFunc
}

func (g *fetchGuard) begin(ctx context.Context) (context.Context, uint64) {
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	ctx, g.cancel = context.WithCancel(ctx)
	return ctx, g.seq
}

func (g *fetchGuard) current(seq uint64) bool {
	return g.seq == seq
}

// finish releases the context of fetch seq if it is still the latest.
func (g *fetchGuard) finish(seq uint64) {
	if g.seq == seq && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
