package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validation"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

const maxBodyBytes = 10 << 20 // 10 MiB, import batches included

// errorBody is the wire shape of a validation failure, mirrored onto form
// field slots by the caller.
type errorBody struct {
	Message string `json:"message"`
	Body    struct {
		Errors map[string]string `json:"errors"`
	} `json:"body"`
}

// duplicateBody additionally carries the conflicting record so the caller
// can link to it.
type duplicateBody struct {
	Message string                            `json:"message"`
	Code    string                            `json:"code"`
	Body    struct {
		Errors map[string]string `json:"errors"`
	} `json:"body"`
	ExistingOpportunity apperrors.ExistingOpportunityRef `json:"existing_opportunity"`
}

// readBody reads the request payload as raw JSON; decoding and coercion
// happen inside the validation entry points.
func readBody(r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// writeError translates the layered error types onto HTTP statuses. The
// validation shape is the contract; everything else is a thin envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	if dup, ok := apperrors.AsDuplicateOpportunityError(err); ok {
		resp := duplicateBody{
			Message:             apperrors.ValidationMessage,
			Code:                dup.Code,
			ExistingOpportunity: dup.Existing,
		}
		resp.Body.Errors = map[string]string{"product_id": dup.Error()}
		utils.WriteJSONResponse(w, http.StatusConflict, resp)
		return
	}

	if verr, ok := apperrors.AsValidationError(err); ok {
		resp := errorBody{Message: verr.Message}
		resp.Body.Errors = verr.Errors
		utils.WriteJSONResponse(w, http.StatusBadRequest, resp)
		return
	}

	switch {
	case apperrors.IsNotFoundError(err):
		utils.WriteJSONResponse(w, http.StatusNotFound, map[string]string{"message": "Not found"})
	case apperrors.IsConflictError(err):
		utils.WriteJSONResponse(w, http.StatusConflict, map[string]string{"message": "Version conflict"})
	case apperrors.IsBadRequestError(err):
		utils.WriteJSONResponse(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	default:
		log.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		utils.WriteJSONResponse(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
}

func (s *Server) handleCreateOpportunity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.opportunities.Create(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload, err := injectID(body, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.opportunities.Update(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, updated)
}

func (s *Server) handleQuickCreateOpportunity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.opportunities.QuickCreate(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, created)
}

func (s *Server) handleCloseOpportunity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload, err := injectID(body, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	closed, err := s.opportunities.Close(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, closed)
}

// handleValidateContact runs the contact schema without writing anything.
// The import panel uses it for its live per-row preview.
func (s *Server) handleValidateContact(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validation.ValidateCreateContact(body); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleValidateActivity runs the activity schema without writing anything.
func (s *Server) handleValidateActivity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validation.ValidateCreateActivity(body); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importRequest is the bulk-validation payload.
type importRequest struct {
	Rows []interface{} `json:"rows"`
}

func (s *Server) handleImportContacts(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req importRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, map[string]string{"message": "Malformed import payload"})
		return
	}
	report, err := s.importWorker.ValidateContacts(r.Context(), req.Rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, report)
}

// injectID overlays the path id onto the body so the schemas see one
// payload. The body may omit id entirely; a mismatching body id is
// overwritten by the path.
func injectID(body json.RawMessage, id string) (interface{}, error) {
	var payload map[string]interface{}
	if len(body) == 0 {
		payload = map[string]interface{}{}
	} else if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidation(map[string]string{"_body": "must be a JSON object"})
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["id"] = id
	return payload, nil
}
