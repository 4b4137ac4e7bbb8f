package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/onnwee/cropadvisor/internal/crop"
	"github.com/onnwee/cropadvisor/internal/recommend"
	"github.com/onnwee/cropadvisor/internal/validate"
)

// Recommender scores a soil sample against the crop range dataset.
type Recommender interface {
	Recommend(ctx context.Context, sample recommend.SoilSample) ([]string, error)
}

// FertilizerSource looks up per-crop fertilizer guidance.
type FertilizerSource interface {
	GetFertilizer(ctx context.Context, cropName string) (*crop.Fertilizer, error)
}

// SoilDataRequest is the body of POST /recommend-crop/. Every reading is required.
type SoilDataRequest struct {
	Nitrogen    *float64 `json:"nitrogen"`
	Phosphorus  *float64 `json:"phosphorus"`
	Potassium   *float64 `json:"potassium"`
	PH          *float64 `json:"ph"`
	Humidity    *float64 `json:"humidity"`
	Temperature *float64 `json:"temperature"`
}

// sample converts the request, naming the first missing reading.
func (req SoilDataRequest) sample() (recommend.SoilSample, string) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"nitrogen", req.Nitrogen},
		{"phosphorus", req.Phosphorus},
		{"potassium", req.Potassium},
		{"ph", req.PH},
		{"humidity", req.Humidity},
		{"temperature", req.Temperature},
	}
	for _, f := range fields {
		if f.value == nil {
			return recommend.SoilSample{}, f.name
		}
	}
	return recommend.SoilSample{
		Nitrogen:    *req.Nitrogen,
		Phosphorus:  *req.Phosphorus,
		Potassium:   *req.Potassium,
		PH:          *req.PH,
		Humidity:    *req.Humidity,
		Temperature: *req.Temperature,
	}, ""
}

// CropRequest is the body of POST /fertilizer_recommendations.
type CropRequest struct {
	CropName string `json:"crop_name"`
}

// RecommendHandlers serves crop recommendations and fertilizer guidance.
type RecommendHandlers struct {
	recommender Recommender
	fertilizers FertilizerSource
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(recommender Recommender, fertilizers FertilizerSource) *RecommendHandlers {
	return &RecommendHandlers{
		recommender: recommender,
		fertilizers: fertilizers,
	}
}

// RecommendCrop handles POST /recommend-crop/.
// Responds with up to five crop names, best match first.
func (h *RecommendHandlers) RecommendCrop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SoilDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sample, missing := req.sample()
	if missing != "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, missing+" is required")
		return
	}
	if err := validate.SoilSample(sample); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	names, err := h.recommender.Recommend(r.Context(), sample)
	switch {
	case errors.Is(err, recommend.ErrNoMatch):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNoMatch, "No matching crops found for the given soil parameters")
		return
	case err != nil:
		writeInternal(w, r, "crop recommendation failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, names)
}

// FertilizerRecommendations handles POST /fertilizer_recommendations.
func (h *RecommendHandlers) FertilizerRecommendations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CropRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name, err := validate.CropName(req.CropName)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "crop_name: "+err.Error())
		return
	}

	f, err := h.fertilizers.GetFertilizer(r.Context(), name)
	switch {
	case errors.Is(err, crop.ErrCropNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeCropNotFound, "Crop not found")
		return
	case err != nil:
		writeInternal(w, r, "fertilizer lookup failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, f)
}
