package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/appointly/appointly/internal/lifecycle"
	"github.com/appointly/appointly/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeRejection surfaces a validation rejection as 422 with the reason
// verbatim. These are user-correctable and never retried.
func writeRejection(w http.ResponseWriter, rej *schedule.Rejection) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: rej.Reason, Code: rej.Code})
}

// writeDenial surfaces a lifecycle rule denial as 409: the appointment
// exists, its current state just does not admit the transition.
func writeDenial(w http.ResponseWriter, d *lifecycle.Denial) {
	writeJSON(w, http.StatusConflict, errorBody{Error: d.Reason, Code: d.Code})
}

// writeSlotTaken is the retryable concurrency outcome: the slot was free at
// validation time and gone at commit time.
func writeSlotTaken(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, errorBody{Error: "This slot is no longer available.", Code: "slot_taken"})
}

// businessIDFrom reads the owner scope header, falling back to the query
// string for curl convenience.
func businessIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get("X-Business-Id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("business_id"))
	}
	return id
}
