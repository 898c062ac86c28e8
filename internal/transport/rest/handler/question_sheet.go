package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"dynaform/internal/model"
	"dynaform/internal/service"
	"dynaform/internal/transport/rest/middleware"
)

// QuestionSheetHandler handles question sheet endpoints
type QuestionSheetHandler struct {
	questionSvc *service.QuestionSheetService
}

// NewQuestionSheetHandler creates a new question sheet handler
func NewQuestionSheetHandler(questionSvc *service.QuestionSheetService) *QuestionSheetHandler {
	return &QuestionSheetHandler{questionSvc: questionSvc}
}

// QuestionSheetRequest is the request body for creating or replacing a question sheet
type QuestionSheetRequest struct {
	Label      string            `json:"label"`
	Pages      []model.Page      `json:"pages"`
	Conditions []model.Condition `json:"conditions"`
}

func (req QuestionSheetRequest) sheet(id string) *model.QuestionSheet {
	return &model.QuestionSheet{
		ID:         id,
		Label:      req.Label,
		Pages:      req.Pages,
		Conditions: req.Conditions,
	}
}

// Create handles POST /v1/question-sheets
func (h *QuestionSheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	if middleware.GetEditorID(r.Context()) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req QuestionSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet := req.sheet("")
	id, err := h.questionSvc.Create(r.Context(), sheet)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sheet.ID = id

	writeJSON(w, http.StatusCreated, sheet)
}

// List handles GET /v1/question-sheets
func (h *QuestionSheetHandler) List(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.questionSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sheets == nil {
		sheets = []*model.QuestionSheet{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questionSheets": sheets})
}

// Get handles GET /v1/question-sheets/{id}
func (h *QuestionSheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.questionSvc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sheet)
}

// Update handles PUT /v1/question-sheets/{id}
func (h *QuestionSheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req QuestionSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet := req.sheet(id)
	if err := h.questionSvc.Update(r.Context(), sheet); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sheet)
}

// Delete handles DELETE /v1/question-sheets/{id}
func (h *QuestionSheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionSvc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
