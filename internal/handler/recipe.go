package handler

import (
	"log/slog"
	"net/http"

	"github.com/rsheldon/bramble/internal/auth"
	"github.com/rsheldon/bramble/internal/model"
	"github.com/rsheldon/bramble/internal/store"
	"github.com/rsheldon/bramble/internal/websocket"
)

type RecipeHandler struct {
	recipes *store.RecipeStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRecipeHandler(rs *store.RecipeStore, hub *websocket.Hub, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: rs,
		hub:     hub,
		logger:  logger.With("component", "recipe"),
	}
}

type recipeRequest struct {
	Name        string                `json:"name"`
	Tags        []string              `json:"tags"`
	Ingredients []model.NewIngredient `json:"ingredients"`
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	recipe, err := h.recipes.Create(r.PathValue("id"), req.Name, req.Tags, req.Ingredients, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) ListForHousehold(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.ListForHousehold(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.GetByID(r.PathValue("recipeId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.recipes.ListIngredients(r.PathValue("recipeId"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if ingredients == nil {
		ingredients = []model.RecipeIngredient{}
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	recipe, err := h.recipes.Update(r.PathValue("recipeId"), req.Name, req.Tags, req.Ingredients, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Delete(r.PathValue("recipeId"), auth.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addToListRequest struct {
	StoreID string `json:"store_id"`
}

// AddToList pushes the recipe's ingredients onto a store's shopping list,
// creating catalog items as needed. Re-adding merges into existing entries.
func (h *RecipeHandler) AddToList(w http.ResponseWriter, r *http.Request) {
	var req addToListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.recipes.AddToList(r.PathValue("recipeId"), req.StoreID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	for _, e := range entries {
		h.hub.Broadcast(websocket.NewMessage("entry", "upserted", e.ID, e.StoreID, nil))
	}
	writeJSON(w, http.StatusOK, entries)
}
