package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/synheart/consciousness-bridge/internal/models"
)

//go:embed templates/status.html
var templatesFS embed.FS

var statusTemplate = template.Must(template.ParseFS(templatesFS, "templates/status.html"))

// statusPage is the data rendered on the root page
type statusPage struct {
	Tier     models.Tier
	Schedule string
	RunID    string
	State    models.State
	Metrics  map[string]float64
	Started  string
	Updates  string
	Streams  bool
}

func (s *Server) renderStatus(w io.Writer) error {
	state := s.gen.At(s.gen.Elapsed())
	return statusTemplate.Execute(w, statusPage{
		Tier:     s.gen.Tier(),
		Schedule: s.gen.Schedule().Name,
		RunID:    s.gen.RunID(),
		State:    state,
		Metrics:  state.Metrics(),
		Started:  humanize.Time(s.gen.Epoch()),
		Updates:  humanize.Comma(s.gen.Updates()),
		Streams:  len(s.closers) > 0,
	})
}
