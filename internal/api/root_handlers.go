package api

import "net/http"

// Root handles GET / and answers 404 for every path the mux does not route.
func Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Welcome to the Crop Recommendation API"})
}
