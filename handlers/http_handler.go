// Package handlers provides HTTP request handlers for the pediatric dosing API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/pediatric-dosing-api/dosing"
	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	catalog   interfaces.CatalogStore
	validator interfaces.CatalogValidator
	service   *dosing.Service
	health    interfaces.HealthChecker
	startTime time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(catalog interfaces.CatalogStore, validator interfaces.CatalogValidator,
	service *dosing.Service, health interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		catalog:   catalog,
		validator: validator,
		service:   service,
		health:    health,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// This is a placeholder - the actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// DoseRequest is the body of POST /dose
type DoseRequest struct {
	MedicationID string   `json:"medicationId"`
	WeightKg     *float64 `json:"weightKg"`
	AgeMonths    *float64 `json:"ageMonths,omitempty"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// ListMedications returns the enabled medications, optionally filtered by ?category=
func (h *HTTPHandlerImpl) ListMedications(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		if err := h.validator.ValidateInput(category); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	results := medications.FilterByCategory(h.catalog.GetMedications(), category)
	h.RespondWithJSON(w, http.StatusOK, results)
}

// GetMedication returns one medication by id
func (h *HTTPHandlerImpl) GetMedication(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateMedicationID(chi.URLParam(r, "id"))
	if err != nil {
		logging.Warn("Unusual user input", "id", chi.URLParam(r, "id"))
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	med, ok := h.catalog.GetMedication(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Medication not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, med)
}

// SearchMedications searches enabled medications by name or alias
func (h *HTTPHandlerImpl) SearchMedications(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	if term == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing search term")
		return
	}

	if err := h.validator.ValidateInput(term); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Always return 200 with results array (empty if no matches)
	h.RespondWithJSON(w, http.StatusOK, medications.Search(h.catalog.GetMedications(), term))
}

// CalculateDose handles GET /dose/{id}?weight=<kg>&age=<months>
func (h *HTTPHandlerImpl) CalculateDose(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	weightParam := query.Get("weight")
	if weightParam == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing weight parameter")
		return
	}

	weight, err := parseNumber(weightParam, "weight")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var age *float64
	if ageParam := query.Get("age"); ageParam != "" {
		value, err := parseNumber(ageParam, "age")
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		age = &value
	}

	h.calculate(w, chi.URLParam(r, "id"), weight, age)
}

// CalculateDoseFromBody handles POST /dose with a DoseRequest body
func (h *HTTPHandlerImpl) CalculateDoseFromBody(w http.ResponseWriter, r *http.Request) {
	var req DoseRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.WeightKg == nil {
		h.RespondWithError(w, http.StatusBadRequest, "Missing weightKg")
		return
	}

	h.calculate(w, req.MedicationID, *req.WeightKg, req.AgeMonths)
}

func (h *HTTPHandlerImpl) calculate(w http.ResponseWriter, rawID string, weight float64, age *float64) {
	id, err := h.validator.ValidateMedicationID(rawID)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CalculateByID(id, weight, age)
	switch {
	case errors.Is(err, dosing.ErrMedicationNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Medication not found")
		return
	case errors.Is(err, dosing.ErrMedicationDisabled):
		h.RespondWithError(w, http.StatusConflict, "Medication is disabled")
		return
	case err != nil:
		logging.Error("Dose calculation failed", "medication_id", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Dose calculation failed")
		return
	}

	// An invalid calculation is still a successful request
	h.RespondWithJSON(w, http.StatusOK, result)
}

// parseNumber parses a finite decimal number from a query parameter
func parseNumber(raw, name string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be a number, got: %q", name, raw)
	}
	return value, nil
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.health.HealthCheck()

	response := HealthResponse{
		Status:        status,
		UptimeSeconds: math.Round(time.Since(h.startTime).Seconds()),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
