package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/notice"
	"github.com/MuhammadMagdy7/money-transfer/internal/pages"
	"github.com/MuhammadMagdy7/money-transfer/internal/search"
	"github.com/MuhammadMagdy7/money-transfer/internal/session"
)

const transferSucceeded = "Transfer successful!"

// detailView adds display text to the page model's view.
type detailView struct {
	pages.DetailView
	ErrText string
}

// SearchResponse is the body of GET /account/:id/search
type SearchResponse struct {
	Stale   bool                  `json:"stale,omitempty"`
	Results []domain.SearchResult `json:"results"`
	Open    bool                  `json:"open"`
}

// DetailPage handles GET /account/:id
func (h *Handler) DetailPage(c *gin.Context) {
	s := h.session(c)
	id := c.Param("id")
	d := s.Detail(id)

	status := http.StatusOK
	if err := ensureAccount(c.Request.Context(), d, id); err != nil {
		status = statusFor(err)
	}
	h.renderDetail(c, status, s, d)
}

// Search handles GET /account/:id/search?q=
func (h *Handler) Search(c *gin.Context) {
	s := h.session(c)
	d := s.Detail(c.Param("id"))

	results, err := d.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, search.ErrSuperseded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusOK, SearchResponse{Stale: true})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": errText(err)})
		return
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	c.JSON(http.StatusOK, SearchResponse{
		Results: results,
		Open:    d.DropdownVisible(),
	})
}

// Transfer handles POST /account/:id/transfer. Every outcome redirects back to
// the account so reloading the result page never posts the transfer again.
func (h *Handler) Transfer(c *gin.Context) {
	s := h.session(c)
	ctx := c.Request.Context()
	id := c.Param("id")
	d := s.Detail(id)
	back := "/account/" + url.PathEscape(id)

	if err := ensureAccount(ctx, d, id); err != nil {
		h.pushNotice(c, s, notice.Error("Transfer failed: "+reason(err)))
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	form := pages.TransferForm{
		Recipient:  strings.TrimSpace(c.PostForm("to_account")),
		SearchText: c.PostForm("recipient"),
		Amount:     strings.TrimSpace(c.PostForm("amount")),
	}
	if err := d.SubmitForm(ctx, id, form); err != nil {
		h.pushNotice(c, s, notice.Error("Transfer failed: "+reason(err)))
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	h.pushNotice(c, s, notice.Success(transferSucceeded))
	c.Redirect(http.StatusSeeOther, back)
}

// ensureAccount loads id unless the page already shows it.
func ensureAccount(ctx context.Context, d *pages.DetailPage, id string) error {
	if d.ID() == id && d.View().Account != nil {
		return nil
	}
	err := d.Load(ctx, id)
	if errors.Is(err, pages.ErrSuperseded) {
		return nil
	}
	return err
}

// reason is the failure text for a transfer, without wrapping prefixes.
func reason(err error) string {
	for _, sentinel := range []error{
		pages.ErrIncomplete, pages.ErrInFlight, pages.ErrNotLoaded, pages.ErrWrongAccount,
		domain.ErrEmptyAmount, domain.ErrInvalidAmount,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return errText(err)
}

func (h *Handler) renderDetail(c *gin.Context, status int, s *session.Session, d *pages.DetailPage) {
	v := d.View()
	title := "Account Details"
	if v.Account != nil {
		title = v.Account.Name
	}
	h.render(c, status, s, "detail", title, detailView{DetailView: v, ErrText: errText(v.Err)})
}
