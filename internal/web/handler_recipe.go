package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.RecipeFilter{Category: domain.Category(q.Get("category"))}
	if filter.Category != "" && !filter.Category.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", filter.Category))
		return
	}
	if v := q.Get("wishlist"); v != "" {
		wishlist, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "wishlist must be true or false")
			return
		}
		filter.Wishlist = &wishlist
	}

	recipes, err := s.planner.ListRecipes(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, "list recipes", err)
		return
	}
	respondJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in domain.NewRecipe
	if err := decodeJSON(r, &in); err != nil {
		s.respondServiceError(w, r, "create recipe", err)
		return
	}

	recipe, err := s.planner.CreateRecipe(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, r, "create recipe", err)
		return
	}
	respondJSON(w, http.StatusCreated, recipe)
}

type updateWishlistRequest struct {
	ID       string `json:"id"`
	Wishlist *bool  `json:"wishlist"`
}

func (s *Server) handleUpdateWishlist(w http.ResponseWriter, r *http.Request) {
	var req updateWishlistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondServiceError(w, r, "update wishlist", err)
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Wishlist == nil {
		respondError(w, http.StatusBadRequest, "wishlist is required")
		return
	}

	if err := s.planner.UpdateWishlist(r.Context(), req.ID, *req.Wishlist); err != nil {
		s.respondServiceError(w, r, "update wishlist", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Wishlist updated successfully"})
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.planner.DeleteRecipe(r.Context(), id); err != nil {
		s.respondServiceError(w, r, "delete recipe", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Recipe deleted successfully"})
}
