package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"agristat/internal/engine"
	"agristat/internal/models"
	"agristat/internal/render"
)

// View names used in routes and metrics
const (
	viewState = "by_state"
	viewYield = "by_year"
)

type HandlerOptions struct {
	ChartWidth  int
	ChartHeight int
	Metrics     *Metrics
	Logger      *slog.Logger
}

// Handler serves the dashboard. Until SetData is called every data
// endpoint answers 503.
type Handler struct {
	data    atomic.Pointer[engine.Dashboard]
	pages   *render.PageRenderer
	metrics *Metrics
	logger  *slog.Logger
	width   int
	height  int
}

func NewHandler(data *engine.Dashboard, opts HandlerOptions) (*Handler, error) {
	pages, err := render.NewPageRenderer()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{
		pages:   pages,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		width:   opts.ChartWidth,
		height:  opts.ChartHeight,
	}
	if data != nil {
		h.SetData(data)
	}
	return h, nil
}

// SetData publishes a dashboard to the live API
func (h *Handler) SetData(d *engine.Dashboard) {
	h.data.Store(d)
}

// Ready reports whether a dashboard has been published
func (h *Handler) Ready() bool {
	return h.data.Load() != nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.GetHealth)
	e.GET("/", h.GetPage, h.requireData)

	api := e.Group("/api", h.requireData)
	api.GET("/options", h.GetOptions)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/charts/state", h.GetStateChart)
	api.GET("/charts/yield", h.GetYieldChart)
	api.GET("/charts/state.png", h.GetStateChartPNG)
	api.GET("/charts/yield.png", h.GetYieldChartPNG)
	api.GET("/tables/state", h.GetStateTable)
	api.GET("/tables/yield", h.GetYieldTable)
}

// requireData answers 503 while the dataset is loading
func (h *Handler) requireData(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.Ready() {
			c.Response().Header().Set("Retry-After", "5")
			return ErrServiceUnavailable
		}
		return next(c)
	}
}

// --- HANDLERS ---

// bindSelection reads crop, year, state and yield from the query string
func (h *Handler) bindSelection(c echo.Context) (*engine.Dashboard, models.Selection, error) {
	d := h.data.Load()
	var sel models.Selection
	if err := c.Bind(&sel); err != nil {
		return d, sel, InvalidParameter(err)
	}
	if err := c.Validate(&sel); err != nil {
		return d, sel, ValidationFailed(err)
	}
	return d, d.WithDefaults(sel), nil
}

func (h *Handler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"ready":  h.Ready(),
	})
}

func (h *Handler) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.data.Load().Options())
}

func (h *Handler) GetDashboard(c echo.Context) error {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return err
	}
	view := d.Render(sel)
	h.metrics.ObserveRender(viewState, view.ByState.Empty)
	h.metrics.ObserveRender(viewYield, view.ByYear.Empty)
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetPage(c echo.Context) error {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return err
	}
	view := d.Render(sel)
	h.metrics.ObserveRender(viewState, view.ByState.Empty)
	h.metrics.ObserveRender(viewYield, view.ByYear.Empty)

	var buf bytes.Buffer
	if err := h.pages.Render(&buf, view); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *Handler) stateChart(c echo.Context) (*models.ChartSpec, error) {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return nil, err
	}
	spec := d.StateView(sel)
	h.metrics.ObserveRender(viewState, spec.Empty)
	if spec.Empty {
		h.logger.DebugContext(c.Request().Context(), "empty chart",
			slog.String("view", viewState),
			slog.String("crop", sel.Crop),
			slog.Int("year", sel.Year))
	}
	return spec, nil
}

func (h *Handler) yieldChart(c echo.Context) (*models.ChartSpec, error) {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return nil, err
	}
	spec := d.YieldView(sel)
	h.metrics.ObserveRender(viewYield, spec.Empty)
	if spec.Empty {
		h.logger.DebugContext(c.Request().Context(), "empty chart",
			slog.String("view", viewYield),
			slog.String("state", sel.State))
	}
	return spec, nil
}

func (h *Handler) GetStateChart(c echo.Context) error {
	spec, err := h.stateChart(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *Handler) GetYieldChart(c echo.Context) error {
	spec, err := h.yieldChart(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *Handler) GetStateChartPNG(c echo.Context) error {
	spec, err := h.stateChart(c)
	if err != nil {
		return err
	}
	return h.writePNG(c, spec)
}

func (h *Handler) GetYieldChartPNG(c echo.Context) error {
	spec, err := h.yieldChart(c)
	if err != nil {
		return err
	}
	return h.writePNG(c, spec)
}

// writePNG answers 204 for charts with nothing to draw
func (h *Handler) writePNG(c echo.Context, spec *models.ChartSpec) error {
	var buf bytes.Buffer
	err := render.PNG(&buf, spec, h.width, h.height)
	if errors.Is(err, render.ErrEmptyChart) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// paginate slices the rows of an aggregated table
func paginate(c echo.Context, agg *models.AggregatedTable) error {
	rows := agg.Rows
	total := len(rows)
	limit, offset := getPaginationParams(c, total)

	if offset >= total {
		rows = []models.AggRow{}
	} else {
		end := offset + limit
		if end > total {
			end = total
		}
		rows = rows[offset:end]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"key_field": agg.KeyField,
		"columns":   agg.Columns,
		"data":      rows,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) GetStateTable(c echo.Context) error {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return err
	}
	return paginate(c, d.StateTable(sel))
}

func (h *Handler) GetYieldTable(c echo.Context) error {
	d, sel, err := h.bindSelection(c)
	if err != nil {
		return err
	}
	return paginate(c, d.YieldTable(sel))
}
