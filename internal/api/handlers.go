package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/eligibility-api/internal/audit"
	"github.com/ignite/eligibility-api/internal/calculator"
	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/repository/dynamodb"
)

// GetEligibilityStatus handles GET /eligibility-check/{personID}.
//
// Query parameters:
//
//	includeActions  Y or N, default Y
//	conditions      comma separated condition names, default ALL
//	category        ALL, V or S, default ALL
func (h *Handlers) GetEligibilityStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID := chi.URLParam(r, "personID")

	query, err := parseQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.persons.GetPersonRows(ctx, personID)
	if err != nil {
		if errors.Is(err, dynamodb.ErrPersonNotFound) {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		log.Printf("[api] loading person %s: %v", personID, err)
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}

	configs, err := h.campaigns.ListConfigs(ctx)
	if err != nil {
		log.Printf("[api] loading campaign configs: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load campaign configs")
		return
	}

	ab := audit.NewBuilder(personID)
	status, err := h.calc.GetEligibilityStatus(ctx, rows, configs, query, ab)
	if err != nil {
		switch {
		case errors.Is(err, calculator.ErrInvalidToken):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, campaign.ErrConfigInvalid):
			log.Printf("[api] campaign config rejected: %v", err)
			respondError(w, http.StatusInternalServerError, "campaign configuration invalid")
		default:
			log.Printf("[api] evaluating person %s: %v", personID, err)
			respondError(w, http.StatusInternalServerError, "eligibility evaluation failed")
		}
		return
	}

	// Audit writes are best effort; the response does not wait on them.
	record := ab.Record()
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.auditWriter.Write(writeCtx, record); err != nil {
			log.Printf("[api] writing audit record %s: %v", record.RequestID, err)
		}
	}()

	respondJSON(w, http.StatusOK, status)
}

func parseQuery(r *http.Request) (calculator.Query, error) {
	q := calculator.Query{
		IncludeActions: "Y",
		Conditions:     nil,
		Category:       "ALL",
	}

	if v := r.URL.Query().Get("includeActions"); v != "" {
		upper := strings.ToUpper(v)
		if upper != "Y" && upper != "N" {
			return q, errors.New("includeActions must be Y or N")
		}
		q.IncludeActions = upper
	}

	if v := r.URL.Query().Get("category"); v != "" {
		upper := strings.ToUpper(v)
		if upper != "ALL" && upper != "V" && upper != "S" {
			return q, errors.New("category must be ALL, V or S")
		}
		q.Category = upper
	}

	if v := r.URL.Query().Get("conditions"); v != "" {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			q.Conditions = append(q.Conditions, name)
		}
	}

	return q, nil
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
