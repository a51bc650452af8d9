package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/notice"
	"github.com/MuhammadMagdy7/money-transfer/internal/pages"
	"github.com/MuhammadMagdy7/money-transfer/internal/session"
)

const (
	deleteSucceeded = "All accounts have been deleted successfully."
	deleteFailed    = "Failed to delete accounts. Please try again."
)

// accountsView adds display text to the page model's view.
type accountsView struct {
	pages.AccountsView
	ErrText    string
	MinBalance string
	MaxBalance string
	PrevURL    string
	NextURL    string
}

// AccountsPage handles GET /accounts?page=n
func (h *Handler) AccountsPage(c *gin.Context) {
	s := h.session(c)
	filter := parseListFilter(c)

	status := http.StatusOK
	err := s.Accounts.Load(c.Request.Context(), filter)
	if err != nil && !errors.Is(err, pages.ErrSuperseded) {
		status = http.StatusBadGateway
	}
	h.renderAccounts(c, status, s)
}

// DeleteAll handles POST /accounts/delete-all. The result is shown after a
// redirect back to the list so a reload does not repeat the delete.
func (h *Handler) DeleteAll(c *gin.Context) {
	s := h.session(c)
	confirmed := c.PostForm("confirm") == "yes"

	err := s.Accounts.DeleteAll(c.Request.Context(), confirmed)
	switch {
	case errors.Is(err, pages.ErrNotConfirmed):
	case err != nil:
		h.pushNotice(c, s, notice.Error(deleteFailed))
	default:
		h.pushNotice(c, s, notice.Success(deleteSucceeded))
	}

	v := s.Accounts.View()
	c.Redirect(http.StatusSeeOther, pageURL(v.Filter, v.Pagination.CurrentPage))
}

func (h *Handler) renderAccounts(c *gin.Context, status int, s *session.Session) {
	v := s.Accounts.View()
	view := accountsView{AccountsView: v, ErrText: errText(v.Err)}
	view.PrevURL = pageURL(v.Filter, v.PrevPage)
	view.NextURL = pageURL(v.Filter, v.NextPage)
	if v.Filter.MinBalance != nil {
		view.MinBalance = v.Filter.MinBalance.String()
	}
	if v.Filter.MaxBalance != nil {
		view.MaxBalance = v.Filter.MaxBalance.String()
	}
	h.render(c, status, s, "accounts", "Accounts", view)
}

// pageURL links to page n of the list, keeping the balance filters.
func pageURL(filter domain.ListFilter, n int) string {
	filter.Page = n
	return "/accounts?" + filter.Query().Encode()
}

// parseListFilter reads the list query. Invalid values fall back to the
// backend's defaults.
func parseListFilter(c *gin.Context) domain.ListFilter {
	filter := domain.ListFilter{Page: 1}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		filter.Page = n
	}
	filter.MinBalance = parseDecimal(c.Query("min_balance"))
	filter.MaxBalance = parseDecimal(c.Query("max_balance"))
	return filter
}

func parseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
