package handler

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/MuhammadMagdy7/money-transfer/internal/apiclient"
	"github.com/MuhammadMagdy7/money-transfer/internal/notice"
	"github.com/MuhammadMagdy7/money-transfer/internal/pages"
	"github.com/MuhammadMagdy7/money-transfer/internal/session"
)

const sessionCookie = "portal_session"

//go:embed templates/*.html
var templateFS embed.FS

// Handler contains all HTTP handlers
type Handler struct {
	sessions  *session.Manager
	notices   notice.Store
	maxUpload int64
	templates map[string]*template.Template
}

// NewHandler creates a new handler
func NewHandler(sessions *session.Manager, notices notice.Store, maxUpload int64) *Handler {
	return &Handler{
		sessions:  sessions,
		notices:   notices,
		maxUpload: maxUpload,
		templates: parseTemplates(),
	}
}

// parseTemplates builds one template set per page, each sharing the layout.
func parseTemplates() map[string]*template.Template {
	layout := template.Must(template.ParseFS(templateFS, "templates/layout.html"))

	set := make(map[string]*template.Template)
	for _, name := range []string{"upload", "accounts", "detail"} {
		t := template.Must(layout.Clone())
		set[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return set
}

// SetupRoutes configures all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)

	r.GET("/", h.UploadPage)
	r.POST("/upload", h.Upload)

	r.GET("/accounts", h.AccountsPage)
	r.POST("/accounts/delete-all", h.DeleteAll)

	account := r.Group("/account/:id")
	{
		account.GET("", h.DetailPage)
		account.GET("/search", h.Search)
		account.POST("/transfer", h.Transfer)
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Len(),
	})
}

// pageData is what the layout renders around a page.
type pageData struct {
	Title   string
	Nav     string
	Notices []notice.Notice
	Page    any
}

// session returns the browser's session, issuing a cookie for new ones.
func (h *Handler) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(sessionCookie)
	s, created := h.sessions.Get(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID, 0, "/", "", false, true)
	}
	return s
}

func (h *Handler) pushNotice(c *gin.Context, s *session.Session, n notice.Notice) {
	if err := h.notices.Push(c.Request.Context(), s.ID, n); err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to store notice", "error", err)
	}
}

// render writes a full page with the session's pending notices.
func (h *Handler) render(c *gin.Context, status int, s *session.Session, page, title string, view any) {
	notices, err := h.notices.Pop(c.Request.Context(), s.ID)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to load notices", "error", err)
	}

	c.Render(status, render.HTML{
		Template: h.templates[page],
		Name:     "layout",
		Data: pageData{
			Title:   title,
			Nav:     page,
			Notices: notices,
			Page:    view,
		},
	})
}

// statusFor maps a failed backend call or a rejected action to a status code.
func statusFor(err error) int {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, pages.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// errText is the message shown to the user for err.
func errText(err error) string {
	if err == nil {
		return ""
	}
	return apiclient.Message(err)
}
