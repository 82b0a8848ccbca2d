package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/repository"
	"github.com/mayoristas-py/directory-admin/internal/security"
	"github.com/mayoristas-py/directory-admin/internal/service"
	"github.com/mayoristas-py/directory-admin/internal/web"
)

// PageHandler serves the server-rendered admin pages.
type PageHandler struct {
	store     repository.DocumentStore
	registry  *service.Registry
	analytics *service.AnalyticsService
	pages     *web.Renderer
	now       func() time.Time
}

func NewPageHandler(store repository.DocumentStore, registry *service.Registry, analytics *service.AnalyticsService, pages *web.Renderer) *PageHandler {
	return &PageHandler{store: store, registry: registry, analytics: analytics, pages: pages, now: time.Now}
}

type dashboardCounts struct {
	Shops      int
	Categories int
	Zones      int
	Devices    int
}

type dashboardPage struct {
	Nav          bool
	Counts       dashboardCounts
	LastModified string
	Charts       []string
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardPage{Nav: true, Charts: service.Charts, LastModified: "-"}
	err := h.store.View(r.Context(), func(doc *domain.Document) error {
		data.Counts = dashboardCounts{
			Shops:      len(doc.Shops),
			Categories: len(doc.Categories),
			Zones:      len(doc.Zones),
			Devices:    len(doc.DeviceRegistrations),
		}
		if !doc.LastModified.IsZero() {
			data.LastModified = doc.LastModified.Format("2006-01-02 15:04 MST")
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "dashboard", data)
}

type devicesPage struct {
	Nav     bool
	Current string
	Devices []domain.DeviceRegistration
}

func (h *PageHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registry.ListDevices(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "devices", devicesPage{Nav: true, Current: security.DeviceUUIDFromRequest(r), Devices: devices})
}

type featuresPage struct {
	Nav      bool
	Features []service.FeatureView
}

func (h *PageHandler) Features(w http.ResponseWriter, r *http.Request) {
	features, err := h.registry.ListFeatures(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "features", featuresPage{Nav: true, Features: features})
}

type shopRow struct {
	ID            int
	Name          string
	Owner         string
	ContactNumber string
	Zone          string
	Categories    []string
	Hours         []string
	OpenNow       bool
}

type shopsPage struct {
	Nav   bool
	Shops []shopRow
}

func (h *PageHandler) Shops(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	var rows []shopRow
	err := h.store.View(r.Context(), func(doc *domain.Document) error {
		rows = make([]shopRow, 0, len(doc.Shops))
		for _, s := range doc.Shops {
			row := shopRow{
				ID:            s.ID,
				Name:          s.Name,
				Owner:         s.Owner,
				ContactNumber: s.ContactNumber,
				Zone:          fmt.Sprintf("Zona %d", s.ZoneID),
				OpenNow:       s.WorkingHours.IsOpenAt(now),
			}
			if i := doc.ZoneIndex(s.ZoneID); i >= 0 {
				row.Zone = doc.Zones[i].Name
			}
			for _, id := range s.Categories {
				if i := doc.CategoryIndex(id); i >= 0 {
					row.Categories = append(row.Categories, doc.Categories[i].Name)
				}
			}
			for day, wd := range s.WorkingHours.Days() {
				if wd != nil && wd.IsOpen {
					row.Hours = append(row.Hours, fmt.Sprintf("%s: %s - %s", day, wd.OpenTime, wd.CloseTime))
				}
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "shops", shopsPage{Nav: true, Shops: rows})
}

type chartPage struct {
	Title  string
	Figure map[string]any
}

// Chart renders one analytics chart as a standalone Plotly page, meant to
// be embedded by the dashboard iframes.
func (h *PageHandler) Chart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.analytics.Chart(r.Context(), chi.URLParam(r, "chart"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "chart", chartPage{Title: chart.Title, Figure: plotlyFigure(chart)})
}

func plotlyFigure(c *service.ChartData) map[string]any {
	labels := make([]string, len(c.Points))
	counts := make([]int, len(c.Points))
	for i, p := range c.Points {
		labels[i] = p.Label
		counts[i] = p.Count
	}
	trace := map[string]any{"type": c.Kind}
	if c.Kind == "pie" {
		trace["labels"] = labels
		trace["values"] = counts
	} else {
		trace["x"] = labels
		trace["y"] = counts
	}
	return map[string]any{
		"data": []any{trace},
		"layout": map[string]any{
			"title":  map[string]string{"text": c.Title},
			"margin": map[string]int{"t": 48, "l": 40, "r": 16, "b": 96},
		},
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	if err := h.pages.Render(w, http.StatusOK, page, data); err != nil {
		h.fail(w, r, err)
	}
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "render admin page", "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
