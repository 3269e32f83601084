package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/authflow/pkg/allauth"
)

// envelope is the JSON body of every gateway response.
type envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *errorDetail   `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

var errInvalidRequest = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Meta: meta})
}

// writeError maps operation errors onto status codes: backend rejections keep
// their status, transport failures become 502.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	writeJSON(w, status, body)
}

func errorBody(err error) (int, envelope) {
	if errors.Is(err, errInvalidRequest) {
		return http.StatusBadRequest, envelope{Error: &errorDetail{
			Code:    "invalid_request",
			Message: err.Error(),
		}}
	}

	var authErr *allauth.Error
	if !errors.As(err, &authErr) {
		return http.StatusBadGateway, envelope{Error: &errorDetail{
			Code:    "backend_unavailable",
			Message: http.StatusText(http.StatusBadGateway),
		}}
	}

	status := authErr.Status
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	detail := &errorDetail{Code: "auth_failed", Message: authErr.Message}
	if errors.Is(err, allauth.ErrFlowPending) {
		detail.Code = "flow_pending"
	}
	if fields := authErr.FieldErrors(); len(fields) > 0 {
		detail.Details = make(map[string][]string, len(fields))
		for param, msg := range fields {
			detail.Details[param] = []string{msg}
		}
	}

	body := envelope{Error: detail}
	if pending := authErr.PendingFlows(); len(pending) > 0 {
		ids := make([]string, 0, len(pending))
		for _, f := range pending {
			ids = append(ids, string(f.ID))
		}
		body.Meta = map[string]any{"pending_flows": ids}
	}
	return status, body
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		return errors.Join(errInvalidRequest, err)
	}
	return nil
}
