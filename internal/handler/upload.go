package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMagdy7/money-transfer/internal/notice"
	"github.com/MuhammadMagdy7/money-transfer/internal/session"
)

const defaultImportMessage = "File uploaded successfully"

// UploadPage handles GET /
func (h *Handler) UploadPage(c *gin.Context) {
	s := h.session(c)
	h.render(c, http.StatusOK, s, "upload", "Upload Accounts", s.Upload.View())
}

// Upload handles POST /upload. A request without a file resubmits the file
// kept from a failed attempt.
func (h *Handler) Upload(c *gin.Context) {
	s := h.session(c)

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	if err := h.selectFile(c, s); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.uploadFailed(c, s, status, err)
		return
	}

	result, err := s.Upload.Submit(c.Request.Context())
	if err != nil {
		h.uploadFailed(c, s, statusFor(err), err)
		return
	}

	msg := result.Message
	if msg == "" {
		msg = defaultImportMessage
	}
	h.pushNotice(c, s, notice.Success(msg))
	c.Redirect(http.StatusSeeOther, "/accounts")
}

// selectFile stores the posted file, if any, on the upload page.
func (h *Handler) selectFile(c *gin.Context, s *session.Session) error {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	s.Upload.Select(fh.Filename, content)
	return nil
}

func (h *Handler) uploadFailed(c *gin.Context, s *session.Session, status int, err error) {
	h.pushNotice(c, s, notice.Error("Error uploading file: "+errText(err)))
	h.render(c, status, s, "upload", "Upload Accounts", s.Upload.View())
}
