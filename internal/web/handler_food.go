package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

func (s *Server) handleListFoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.FoodFilter{
		Group: domain.FoodGroup(q.Get("group")),
		Type:  domain.FoodType(q.Get("type")),
	}
	if filter.Group != "" && !filter.Group.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown group %q", filter.Group))
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown type %q", filter.Type))
		return
	}
	if v := q.Get("instock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "instock must be true or false")
			return
		}
		filter.InStock = &inStock
	}

	listing, err := s.planner.ListFoods(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, "list foods", err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleCreateFood(w http.ResponseWriter, r *http.Request) {
	var in domain.NewFood
	if err := decodeJSON(r, &in); err != nil {
		s.respondServiceError(w, r, "create food", err)
		return
	}

	food, err := s.planner.CreateFood(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, r, "create food", err)
		return
	}
	respondJSON(w, http.StatusCreated, food)
}

// updateFoodRequest is the PUT /food body: the target id plus the patch.
// _id is accepted for clients that still send the legacy key.
type updateFoodRequest struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	domain.FoodPatch
}

func (s *Server) handleUpdateFood(w http.ResponseWriter, r *http.Request) {
	var req updateFoodRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, r, "update food", err)
		return
	}
	id := req.ID
	if id == "" {
		id = req.LegacyID
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	food, err := s.planner.UpdateFood(r.Context(), id, req.FoodPatch)
	if err != nil {
		s.respondServiceError(w, r, "update food", err)
		return
	}
	respondJSON(w, http.StatusOK, food)
}

func (s *Server) handleDeleteFood(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.planner.DeleteFood(r.Context(), id); err != nil {
		s.respondServiceError(w, r, "delete food", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Food deleted successfully"})
}
