package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"bizpulse/internal/dataset"
	apierrors "bizpulse/internal/errors"
	"bizpulse/internal/exporter"
	"bizpulse/internal/kpi"
	custommw "bizpulse/internal/middleware"
	"bizpulse/internal/services"
	apiv1 "bizpulse/pkg/contracts/api/v1"
)

// uploadField is the multipart form field carrying the dataset file
const uploadField = "file"

// uploadMemory is the part of a multipart upload held in memory before
// spilling to temporary files
const uploadMemory = 8 << 20

// DashboardHandler handles dataset, KPI, simulation and export requests
type DashboardHandler struct {
	service        DashboardServiceInterface
	validation     *custommw.ValidationMiddleware
	params         *custommw.QueryParamValidator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(
	service DashboardServiceInterface,
	validation *custommw.ValidationMiddleware,
	errorHandler *apierrors.ErrorHandler,
	maxUploadBytes int64,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		validation:     validation,
		params:         custommw.NewQueryParamValidator(errorHandler),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
	}
}

// RegisterRoutes registers the dashboard routes on r
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	jsonBody := custommw.ContentTypeValidator(h.errorHandler, "application/json")

	r.Route("/dataset", func(r chi.Router) {
		r.Get("/", h.GetDataset)
		r.With(custommw.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Upload)
		r.With(jsonBody, h.validation.LimitBody).Post("/sheet", h.LoadSheet)
	})

	r.Get("/kpis", h.GetKPIs)
	r.With(jsonBody, h.validation.LimitBody).Post("/simulate", h.Simulate)
	r.Get("/charts", h.GetCharts)
	r.Get("/export/{format}", h.Export)
}

// Upload handles POST /api/dataset
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "a dataset file is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	ds, err := h.service.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapDatasetError(err, header.Filename))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, datasetResponse(ds))
}

// LoadSheet handles POST /api/dataset/sheet
func (h *DashboardHandler) LoadSheet(w http.ResponseWriter, r *http.Request) {
	var req apiv1.SheetRequest
	if err := h.validation.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ds, err := h.service.LoadSheet(r.Context(), dataset.SheetsSource{
		SpreadsheetID: req.SpreadsheetID,
		Range:         req.Range,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, mapSheetError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, datasetResponse(ds))
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Current()
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, datasetResponse(ds))
}

// GetKPIs handles GET /api/kpis
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, summary)
}

// Simulate handles POST /api/simulate
func (h *DashboardHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req apiv1.SimulateRequest
	if err := h.validation.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Simulate(r.Context(), kpi.Scenario{
		MarketingIncrease:   req.MarketingIncrease,
		AdditionalEmployees: req.AdditionalEmployees,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, report)
}

// GetCharts handles GET /api/charts
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.scenarioFromQuery(w, r)
	if !ok {
		return
	}

	set, err := h.service.Charts(r.Context(), scenario)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, set)
}

// Export handles GET /api/export/{format}. The report is rendered in full
// before any byte is written so failures still produce a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be csv or xlsx"))
		return
	}

	scenario, ok := h.scenarioFromQuery(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), format, scenario, &buf); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	filename := fmt.Sprintf("bizpulse-report-%s%s", time.Now().Format("20060102"), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) scenarioFromQuery(w http.ResponseWriter, r *http.Request) (kpi.Scenario, bool) {
	marketing, ok := h.params.ValidateFloat(w, r, "marketing_increase", kpi.MinMarketingIncrease, kpi.MaxMarketingIncrease, 0)
	if !ok {
		return kpi.Scenario{}, false
	}
	employees, ok := h.params.ValidateInt(w, r, "additional_employees", 0, kpi.MaxAdditionalEmployees, 0)
	if !ok {
		return kpi.Scenario{}, false
	}
	return kpi.Scenario{MarketingIncrease: marketing, AdditionalEmployees: employees}, true
}

func datasetResponse(ds *dataset.Dataset) apiv1.DatasetResponse {
	missing := ds.Missing
	if missing == nil {
		missing = []string{}
	}
	return apiv1.DatasetResponse{
		Name:     ds.Name,
		Source:   ds.Source,
		Rows:     ds.Rows(),
		Columns:  ds.Columns,
		Missing:  missing,
		LoadedAt: ds.LoadedAt,
	}
}

// mapServiceError maps service and domain sentinels to API errors
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		return apierrors.ErrDatasetNotLoaded
	case errors.Is(err, services.ErrSheetsDisabled):
		return apierrors.New(http.StatusServiceUnavailable, apierrors.CodeServiceUnavailable,
			"Google Sheets source is not configured")
	case errors.Is(err, kpi.ErrInvalidScenario):
		return apierrors.ErrValidation("scenario", err.Error())
	case errors.Is(err, exporter.ErrUnknownFormat):
		return apierrors.ErrValidation("format", err.Error())
	default:
		return err
	}
}

// isDatasetError reports failures caused by the content of the input
func isDatasetError(err error) bool {
	if apierrors.IsType(err, apierrors.ErrTypeParsing) {
		return true
	}
	return errors.Is(err, dataset.ErrEmptyFile) ||
		errors.Is(err, dataset.ErrNoKnownColumns) ||
		errors.Is(err, dataset.ErrMalformedValue) ||
		errors.Is(err, dataset.ErrValueOutOfRange) ||
		errors.Is(err, dataset.ErrTooManyRows)
}


// mapDatasetError maps parse failures of an uploaded file
func mapDatasetError(err error, filename string) error {
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return apierrors.UnsupportedFormatError(filename)
	case isDatasetError(err):
		return apierrors.DatasetInvalidError(err)
	default:
		return mapServiceError(err)
	}
}

// mapSheetError treats anything that is not a dataset, service or context
// error as a failure of the Sheets API
func mapSheetError(err error) error {
	switch {
	case isDatasetError(err):
		return apierrors.DatasetInvalidError(err)
	case errors.Is(err, services.ErrSheetsDisabled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return mapServiceError(err)
	case apierrors.IsType(err, apierrors.ErrTypeNotFound):
		return apierrors.New(http.StatusNotFound, apierrors.CodeNotFound, "Spreadsheet or range not found")
	default:
		return apierrors.UpstreamError("Google Sheets", err)
	}
}
