package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pdpdispatch/internal/instancefile"
	"pdpdispatch/internal/store"
)

// Problem is an RFC7807 problem details body. Every 4xx/5xx from the solve
// service uses it.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// writeSolutionText streams a finished run in the solution file format.
func writeSolutionText(w http.ResponseWriter, run store.Run) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Instance+".txt"))
	_ = instancefile.WriteRoutes(w, run.Instance, run.Routes, run.NumVehicles)
}
