package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dynaform/internal/engine"
	"dynaform/internal/model"
	"dynaform/internal/service"
	"dynaform/internal/transport/rest/middleware"
)

const maxMultipartMemory = 32 << 20

// AnswerSheetHandler handles answer sheet endpoints
type AnswerSheetHandler struct {
	answerSvc *service.AnswerSheetService
	authSvc   *service.AuthService
}

// NewAnswerSheetHandler creates a new answer sheet handler
func NewAnswerSheetHandler(answerSvc *service.AnswerSheetService, authSvc *service.AuthService) *AnswerSheetHandler {
	return &AnswerSheetHandler{answerSvc: answerSvc, authSvc: authSvc}
}

// CreateAnswerSheetRequest is the request body for starting an answer sheet
type CreateAnswerSheetRequest struct {
	Type      string `json:"type"`
	Reference bool   `json:"reference"`
}

// CreateAnswerSheetResponse carries the new sheet and the respondent token scoped to it
type CreateAnswerSheetResponse struct {
	AnswerSheet *model.AnswerSheet `json:"answerSheet"`
	Token       string             `json:"token"`
}

// Create handles POST /v1/question-sheets/{id}/answer-sheets
func (h *AnswerSheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnswerSheetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sheet, err := h.answerSvc.Create(r.Context(), mux.Vars(r)["id"], req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authSvc.GenerateRespondentToken(sheet.ID, req.Reference)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusCreated, CreateAnswerSheetResponse{AnswerSheet: sheet, Token: token})
}

// Show handles GET /v1/answer-sheets/{id}
func (h *AnswerSheetHandler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.answerSvc.Show(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetPage handles GET /v1/answer-sheets/{id}/pages/{number}
func (h *AnswerSheetHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	view, err := h.answerSvc.Page(r.Context(), mux.Vars(r)["id"], number, lockContext(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SavePage handles PUT /v1/answer-sheets/{id}/pages/{number}. The body is a
// JSON submission or a multipart form keyed by question id.
func (h *AnswerSheetHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	sub, err := decodeSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lc := lockContext(r)
	result, err := h.answerSvc.Submit(r.Context(), id, sub, lc)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	page, err := h.answerSvc.Page(r.Context(), id, number, lc)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if len(result.Failed()) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]interface{}{
		"result": result,
		"page":   page,
	})
}

// Submit handles POST /v1/answer-sheets/{id}/submit
func (h *AnswerSheetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.answerSvc.Complete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Answers handles GET /v1/answer-sheets/{id}/answers (editor only)
func (h *AnswerSheetHandler) Answers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.answerSvc.Answers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if answers == nil {
		answers = []*model.Answer{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"answers": answers})
}

// Delete handles DELETE /v1/answer-sheets/{id} (editor only)
func (h *AnswerSheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.answerSvc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// lockContext derives lock inputs from the respondent's token and the
// mode query param; mode=review renders read-only
func lockContext(r *http.Request) engine.LockContext {
	return engine.LockContext{
		Editing:   r.URL.Query().Get("mode") != "review",
		Reference: middleware.IsReference(r.Context()),
	}
}

func decodeSubmission(r *http.Request) (model.Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var sub model.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			return sub, fmt.Errorf("invalid request body")
		}
		return sub, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return model.Submission{}, fmt.Errorf("invalid multipart body: %w", err)
	}
	sub := model.Submission{
		Values: make(map[string]model.Values, len(r.MultipartForm.Value)),
		Files:  make(map[string]model.FileUpload, len(r.MultipartForm.File)),
	}
	for qid, values := range r.MultipartForm.Value {
		sub.Values[qid] = values
	}
	for qid, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return model.Submission{}, fmt.Errorf("read upload %s: %w", qid, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return model.Submission{}, fmt.Errorf("read upload %s: %w", qid, err)
		}
		sub.Files[qid] = model.FileUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return sub, nil
}
