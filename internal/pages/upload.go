package pages

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MuhammadMagdy7/money-transfer/internal/activity"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// SelectedFile is the CSV chosen in the file picker.
type SelectedFile struct {
	Name    string
	Content []byte
}

// UploadPage imports one CSV at a time. A failed upload keeps the file so it
// can be submitted again.
type UploadPage struct {
	api       Backend
	recorder  activity.Recorder
	sessionID string

	mu       sync.Mutex
	file     *SelectedFile
	inFlight bool
}

// UploadView is a snapshot of the upload page for rendering.
type UploadView struct {
	FileName  string
	HasFile   bool
	InFlight  bool
	CanSubmit bool
}

func NewUploadPage(api Backend, recorder activity.Recorder, sessionID string) *UploadPage {
	return &UploadPage{api: api, recorder: recorder, sessionID: sessionID}
}

// Select replaces the chosen file.
func (p *UploadPage) Select(name string, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.file = &SelectedFile{Name: name, Content: content}
}

// CanSubmit reports whether a file is chosen and no upload is running.
func (p *UploadPage) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file != nil && !p.inFlight
}

func (p *UploadPage) View() UploadView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := UploadView{InFlight: p.inFlight}
	if p.file != nil {
		v.FileName = p.file.Name
		v.HasFile = true
	}
	v.CanSubmit = v.HasFile && !v.InFlight
	return v
}

// Submit sends the chosen file to the import endpoint. On success the page
// state is discarded since the user navigates away.
func (p *UploadPage) Submit(ctx context.Context) (*domain.ImportResult, error) {
	p.mu.Lock()
	if p.file == nil {
		p.mu.Unlock()
		return nil, ErrMissingFile
	}
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrInFlight
	}
	p.inFlight = true
	file := *p.file
	p.mu.Unlock()

	result, err := p.api.ImportCSV(ctx, file.Name, bytes.NewReader(file.Content))

	p.mu.Lock()
	p.inFlight = false
	if err == nil {
		p.file = nil
	}
	p.mu.Unlock()

	ev := activity.NewEvent(activity.KindImport, p.sessionID, err)
	ev.Detail = file.Name
	p.recorder.Record(ctx, ev)

	if err != nil {
		telemetry.ActionsTotal.WithLabelValues("upload", "failed").Inc()
		slog.ErrorContext(ctx, "Error uploading file", "file", file.Name, "error", err)
		return nil, fmt.Errorf("import %s: %w", file.Name, err)
	}
	telemetry.ActionsTotal.WithLabelValues("upload", "success").Inc()
	return result, nil
}
