package pages

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
)

func pageOf(current, total int, next, prev bool, accounts ...domain.Account) *domain.AccountPage {
	p := &domain.AccountPage{Results: accounts, CurrentPage: current, TotalPages: total}
	if next {
		p.Links.Next = strptr("http://localhost:8000/api/accounts/?page=next")
	}
	if prev {
		p.Links.Previous = strptr("http://localhost:8000/api/accounts/?page=prev")
	}
	return p
}

func TestAccountsPage_InitialView(t *testing.T) {
	p := NewAccountsPage(newFakeBackend(), activity.Discard, "s1")

	v := p.View()
	assert.Equal(t, PhaseIdle, v.Phase)
	assert.Equal(t, domain.DefaultPagination, v.Pagination)
	assert.Equal(t, 1, v.Filter.Page)
}

func TestAccountsPage_LoadDerivesPagination(t *testing.T) {
	backend := newFakeBackend()
	backend.pages[2] = pageOf(2, 3, true, true, domain.Account{ID: "1", Name: "Ann", Balance: decimal.NewFromInt(5)})
	p := NewAccountsPage(backend, activity.Discard, "s1")

	require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: 2}))

	v := p.View()
	assert.Equal(t, PhaseLoaded, v.Phase)
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, domain.Pagination{CurrentPage: 2, TotalPages: 3, HasNext: true, HasPrevious: true}, v.Pagination)
	assert.Equal(t, 1, v.PrevPage)
	assert.Equal(t, 3, v.NextPage)
}

func TestAccountsPage_ButtonsFollowServerLinks(t *testing.T) {
	tests := []struct {
		name     string
		page     *domain.AccountPage
		wantNext bool
		wantPrev bool
	}{
		{"only page", pageOf(1, 1, false, false), false, false},
		{"first of many", pageOf(1, 3, true, false), true, false},
		{"middle", pageOf(2, 3, true, true), true, true},
		{"last", pageOf(3, 3, false, true), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.pages[tt.page.CurrentPage] = tt.page
			p := NewAccountsPage(backend, activity.Discard, "s1")

			require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: tt.page.CurrentPage}))
			v := p.View()
			assert.Equal(t, tt.wantNext, v.Pagination.HasNext)
			assert.Equal(t, tt.wantPrev, v.Pagination.HasPrevious)
			assert.Equal(t, tt.page.CurrentPage-1, v.PrevPage)
			assert.Equal(t, tt.page.CurrentPage+1, v.NextPage)
		})
	}
}

func TestAccountsPage_InvalidPageDefaultsToFirst(t *testing.T) {
	backend := newFakeBackend()
	p := NewAccountsPage(backend, activity.Discard, "s1")

	require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: -4}))
	assert.Equal(t, []int{1}, backend.listCalls)
}

func TestAccountsPage_LoadFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.listHook = func(context.Context, domain.ListFilter) error { return errBackend }
	p := NewAccountsPage(backend, activity.Discard, "s1")

	err := p.Load(context.Background(), domain.ListFilter{Page: 1})
	assert.ErrorIs(t, err, errBackend)

	v := p.View()
	assert.Equal(t, PhaseFailed, v.Phase)
	assert.Empty(t, v.Accounts)
	assert.ErrorIs(t, v.Err, errBackend)
}

func TestAccountsPage_SupersededFetchIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	backend.pages[1] = pageOf(1, 2, true, false, domain.Account{ID: "old"})
	backend.pages[2] = pageOf(2, 2, false, true, domain.Account{ID: "new"})

	started := make(chan struct{})
	backend.listHook = func(ctx context.Context, filter domain.ListFilter) error {
		if filter.Page == 1 {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	p := NewAccountsPage(backend, activity.Discard, "s1")

	firstErr := make(chan error, 1)
	go func() { firstErr <- p.Load(context.Background(), domain.ListFilter{Page: 1}) }()
	<-started

	assert.Equal(t, PhaseLoading, p.View().Phase)
	require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: 2}))

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	v := p.View()
	assert.Equal(t, PhaseLoaded, v.Phase)
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, "new", v.Accounts[0].ID)
	assert.Equal(t, 2, v.Pagination.CurrentPage)
}

func TestAccountsPage_DeleteAllRequiresConfirmation(t *testing.T) {
	backend := newFakeBackend()
	p := NewAccountsPage(backend, activity.Discard, "s1")

	assert.ErrorIs(t, p.DeleteAll(context.Background(), false), ErrNotConfirmed)
	assert.Zero(t, backend.deletes)
}

func TestAccountsPage_DeleteAllRefetchesCurrentPage(t *testing.T) {
	backend := newFakeBackend()
	backend.pages[2] = pageOf(2, 2, false, true, domain.Account{ID: "1"})
	rec := &recorded{}
	p := NewAccountsPage(backend, rec, "s1")
	require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: 2}))

	require.NoError(t, p.DeleteAll(context.Background(), true))

	assert.Equal(t, 1, backend.deletes)
	assert.Equal(t, []int{2, 2}, backend.listCalls)
	v := p.View()
	assert.Equal(t, PhaseLoaded, v.Phase)
	assert.Empty(t, v.Accounts)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, activity.KindDeleteAll, events[0].Kind)
}

func TestAccountsPage_DeleteAllFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.deleteErr = errBackend
	p := NewAccountsPage(backend, activity.Discard, "s1")

	err := p.DeleteAll(context.Background(), true)
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, backend.listCalls)
	assert.False(t, p.View().Deleting)
}

func TestAccountsPage_NavigationFollowsReportedPage(t *testing.T) {
	backend := newFakeBackend()
	// The server clamps an out-of-range request to its last page.
	backend.pages[9] = pageOf(3, 3, false, true, domain.Account{ID: "5"})
	p := NewAccountsPage(backend, activity.Discard, "s1")

	require.NoError(t, p.Load(context.Background(), domain.ListFilter{Page: 9}))

	v := p.View()
	assert.Equal(t, 3, v.Pagination.CurrentPage)
	assert.Equal(t, 2, v.PrevPage)
	assert.Equal(t, 4, v.NextPage)
	assert.False(t, v.Pagination.HasNext)
}
