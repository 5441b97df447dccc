package render

import (
	"embed"
	"io"
	"net/url"
	"strconv"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"agristat/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

// Choice is one option of a selector
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// PageData is what the dashboard template renders
type PageData struct {
	Selection     models.Selection
	Crops         []Choice
	Years         []Choice
	States        []Choice
	YieldColumns  []Choice
	StateChart    *models.ChartSpec
	YieldChart    *models.ChartSpec
	StateChartURL safehtml.URL
	YieldChartURL safehtml.URL
}

// PageRenderer renders the dashboard page
type PageRenderer struct {
	page *template.Template
}

func NewPageRenderer() (*PageRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	page, err := template.New("dashboard.html").ParseFS(trustedFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	return &PageRenderer{page: page}, nil
}

// Render writes the page for one dashboard view
func (r *PageRenderer) Render(w io.Writer, view *models.DashboardView) error {
	return r.page.Execute(w, NewPageData(view))
}

// NewPageData turns a view into selector choices and chart image links
func NewPageData(view *models.DashboardView) PageData {
	sel := view.Selection
	title := cases.Title(language.English)

	data := PageData{Selection: sel, StateChart: view.ByState, YieldChart: view.ByYear}
	for _, c := range view.Options.Crops {
		data.Crops = append(data.Crops, Choice{Value: c, Label: title.String(c), Selected: c == sel.Crop})
	}
	for _, y := range view.Options.Years {
		v := strconv.Itoa(y)
		data.Years = append(data.Years, Choice{Value: v, Label: v, Selected: y == sel.Year})
	}
	for _, s := range view.Options.States {
		data.States = append(data.States, Choice{Value: s, Label: s, Selected: s == sel.State})
	}
	chosen := make(map[string]bool, len(sel.YieldColumns))
	for _, c := range sel.YieldColumns {
		chosen[c] = true
	}
	for _, c := range view.Options.YieldColumns {
		data.YieldColumns = append(data.YieldColumns, Choice{Value: c, Label: c, Selected: chosen[c]})
	}

	data.StateChartURL = StateChartURL(sel)
	data.YieldChartURL = YieldChartURL(sel)
	return data
}

// StateChartURL links the by-state chart image for sel
func StateChartURL(sel models.Selection) safehtml.URL {
	q := url.Values{}
	q.Set("crop", sel.Crop)
	q.Set("year", strconv.Itoa(sel.Year))
	return safehtml.URLSanitized("/api/charts/state.png?" + q.Encode())
}

// YieldChartURL links the yield comparison chart image for sel
func YieldChartURL(sel models.Selection) safehtml.URL {
	q := url.Values{}
	q.Set("state", sel.State)
	for _, c := range sel.YieldColumns {
		q.Add("yield", c)
	}
	return safehtml.URLSanitized("/api/charts/yield.png?" + q.Encode())
}
