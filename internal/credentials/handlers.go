package credentials

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the credential endpoints. Values can be written and
// deleted but are never returned.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/credentials/{name}", handleStatus(store))
	r.Put("/api/credentials/{name}", handlePut(store))
	r.Delete("/api/credentials/{name}", handleDelete(store))
}

type statusResponse struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Source  Source `json:"source,omitempty"`
}

func handleStatus(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		_, src, err := store.Lookup(name)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{Name: name, Present: src != SourceNone, Source: src})
	}
}

func handlePut(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
			return
		}
		name := chi.URLParam(r, "name")
		if err := store.Set(name, body.Value); err != nil {
			http.Error(w, `{"error":"could not store credential"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{Name: name, Present: true, Source: SourceStored})
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(chi.URLParam(r, "name")); err != nil {
			http.Error(w, `{"error":"could not delete credential"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
