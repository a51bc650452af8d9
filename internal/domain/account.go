package domain

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Account is a named balance held by the backend. The portal never changes
// Balance itself; it only shows what the last fetch returned.
type Account struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// FormattedBalance renders the balance as dollars with two decimals.
func (a Account) FormattedBalance() string {
	return "$" + a.Balance.StringFixed(2)
}

// SearchResult is the projection of an account used by the recipient picker.
type SearchResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PageLinks carries the backend's next/previous page URLs. A nil link means
// there is no such page.
type PageLinks struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// AccountPage is one page of the backend's account listing.
type AccountPage struct {
	Results     []Account `json:"results"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
	Links       PageLinks `json:"links"`
}

// Pagination is derived from an AccountPage on every fetch.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// DefaultPagination is shown before the first page has been fetched.
var DefaultPagination = Pagination{CurrentPage: 1, TotalPages: 1}

// PaginationFrom derives the pagination state from a fetched page.
func PaginationFrom(p AccountPage) Pagination {
	return Pagination{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		HasNext:     p.Links.Next != nil && *p.Links.Next != "",
		HasPrevious: p.Links.Previous != nil && *p.Links.Previous != "",
	}
}

// ImportResult is the backend's answer to a CSV import.
type ImportResult struct {
	Message  string    `json:"message"`
	Accounts []Account `json:"accounts"`
}

// ListFilter selects which accounts the backend lists.
type ListFilter struct {
	Page       int
	Search     string
	Ordering   string
	MinBalance *decimal.Decimal
	MaxBalance *decimal.Decimal
}

// Query encodes the filter as backend query parameters. Zero fields are omitted.
func (f ListFilter) Query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	if f.MinBalance != nil {
		q.Set("min_balance", f.MinBalance.String())
	}
	if f.MaxBalance != nil {
		q.Set("max_balance", f.MaxBalance.String())
	}
	return q
}
