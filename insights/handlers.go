// Copyright 2025 FloWorks
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package insights

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"floworks/platform/shared/logger"
	"floworks/platform/shared/types"
)

// APIHandler serves the insights HTTP API
type APIHandler struct {
	service *StatisticsService
	stats   *StatsCollector
	log     *logger.Logger
}

// NewAPIHandler creates the HTTP handler set for the service
func NewAPIHandler(service *StatisticsService, stats *StatsCollector) *APIHandler {
	return &APIHandler{
		service: service,
		stats:   stats,
		log:     logger.New("insights-api"),
	}
}

// productionSuccessRequest is the body of POST /api/v1/events/production-success
type productionSuccessRequest struct {
	Workflow types.Workflow  `json:"workflow"`
	Run      types.RunResult `json:"run"`
}

// nodeDataLoadRequest is the body of POST /api/v1/events/node-data-load
type nodeDataLoadRequest struct {
	WorkflowID string             `json:"workflow_id"`
	Node       types.WorkflowNode `json:"node"`
}

// eventResponse is the envelope returned for accepted events
type eventResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

// errorResponse is the envelope returned for failures
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleProductionSuccess records a production execution result
func (h *APIHandler) HandleProductionSuccess(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var req productionSuccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", RequestID: requestID})
		return
	}
	if req.Workflow.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "workflow.id is required", RequestID: requestID})
		return
	}

	outcome, err := h.service.RecordProductionSuccess(r.Context(), req.Workflow, req.Run)
	if err != nil {
		h.log.ErrorWithErr("", req.Workflow.ID, "Failed to record production success", err, map[string]interface{}{
			"request_id": requestID,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to record event", RequestID: requestID})
		return
	}

	writeJSON(w, http.StatusAccepted, eventResponse{Status: string(outcome), RequestID: requestID})
}

// HandleNodeDataLoad records a node data fetch
func (h *APIHandler) HandleNodeDataLoad(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var req nodeDataLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", RequestID: requestID})
		return
	}
	if req.WorkflowID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "workflow_id is required", RequestID: requestID})
		return
	}

	outcome, err := h.service.RecordNodeDataFetch(r.Context(), req.WorkflowID, req.Node)
	if err != nil {
		h.log.ErrorWithErr("", req.WorkflowID, "Failed to record node data load", err, map[string]interface{}{
			"request_id": requestID,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to record event", RequestID: requestID})
		return
	}

	writeJSON(w, http.StatusAccepted, eventResponse{Status: string(outcome), RequestID: requestID})
}

// HandleWorkflowStatistics returns the counter rows for a workflow
func (h *APIHandler) HandleWorkflowStatistics(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["id"]

	rows, err := h.service.Statistics(r.Context(), workflowID)
	if err != nil {
		h.log.ErrorWithErr("", workflowID, "Failed to read statistics", err, nil)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read statistics"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workflow_id": workflowID,
		"statistics":  rows,
	})
}

// HandleHealth reports service liveness
func (h *APIHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleMetrics returns the JSON metrics snapshot
func (h *APIHandler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
