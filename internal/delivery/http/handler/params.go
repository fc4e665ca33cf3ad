package handler

import (
	"net/http"
	"strconv"

	"clinic-backend/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// uuidVar parses a UUID path variable, writing a 400 when it is malformed.
func uuidVar(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label, nil)
		return uuid.Nil, false
	}
	return id, true
}

func intVar(w http.ResponseWriter, r *http.Request, name, label string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label, nil)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.ValidationError(w, map[string]string{name: name + " must be a number"})
		return 0, false
	}
	return n, true
}
