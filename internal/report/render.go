package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/yuin/goldmark"

	"github.com/railbird-dev/railbird/internal/summary"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"embedURL": func(videoID string) string {
		return "https://www.youtube.com/embed/" + videoID
	},
	"sectionLabel": func(kind summary.SectionKind) string {
		return kind.String()
	},
}

// reportTemplate is parsed once at init. Panics on syntax errors so that
// startup fails fast.
var reportTemplate = template.Must(
	template.New("report.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/report.html"),
)

// Section is one collapsible block inside a video entry.
type Section struct {
	Kind    summary.SectionKind
	Entries []template.HTML
}

// videoView is the per-video data handed to the template.
type videoView struct {
	VideoID    string
	Title      string
	Duration   string
	UploadDate string
	Sections   []Section
}

// page is the root template data.
type page struct {
	Title       string
	GeneratedAt string
	Intro       template.HTML
	Videos      []videoView
	Excluded    []string
}

// Renderer produces the HTML report. The zero value renders with an
// empty title and no intro block.
type Renderer struct {
	// Title is the page heading.
	Title string
	// Intro is optional markdown prepended to the report body.
	Intro string
	// Now overrides the generation timestamp in tests.
	Now func() time.Time
}

// Render writes the full report. Excluded lists the video IDs dropped
// because their metadata could not be fetched; they appear in the footer
// so a missing video is visible rather than silently gone.
func (r *Renderer) Render(w io.Writer, entries []Entry, excluded []string) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	data := page{
		Title:       r.Title,
		GeneratedAt: now().UTC().Format("January 2, 2006 15:04 MST"),
		Excluded:    excluded,
		Videos:      make([]videoView, 0, len(entries)),
	}

	if r.Intro != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(r.Intro), &buf); err != nil {
			return fmt.Errorf("rendering intro markdown: %w", err)
		}
		data.Intro = template.HTML(buf.String())
	}

	for _, e := range entries {
		v := videoView{
			VideoID:    e.VideoID,
			Title:      e.Title,
			Duration:   e.Duration.String(),
			UploadDate: e.UploadDate,
		}
		for _, kind := range []summary.SectionKind{
			summary.KeyMoments, summary.StandoutPlayers, summary.StrategicInsights,
		} {
			sec := Section{Kind: kind}
			for _, entry := range e.Record.Section(kind) {
				// Entries carry pre-escaped anchor markup from the
				// merge step and must not be escaped again.
				sec.Entries = append(sec.Entries, template.HTML(entry))
			}
			v.Sections = append(v.Sections, sec)
		}
		data.Videos = append(data.Videos, v)
	}

	return reportTemplate.Execute(w, data)
}

// RenderToFile renders the report to path, creating or truncating it.
func (r *Renderer) RenderToFile(path string, entries []Entry, excluded []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := r.Render(f, entries, excluded); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
