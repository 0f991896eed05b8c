package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rsheldon/bramble/internal/access"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

// RecipeStore manages household recipes and sending their ingredients to a
// store's shopping list.
type RecipeStore struct {
	db         *sql.DB
	households *HouseholdStore
	items      *ItemStore
	lists      *ListStore
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{
		db:         db,
		households: NewHouseholdStore(db),
		items:      NewItemStore(db),
		lists:      NewListStore(db),
	}
}

const recipeCols = `id, household_id, name, tags, created_by, updated_by, created_at, updated_at`

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	var tags string
	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Name, &tags, &r.CreatedBy, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Tags = splitTags(tags)
	return &r, nil
}

func joinTags(tags []string) string {
	var clean []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (s *RecipeStore) requireMember(householdID, userID string, min access.Role) error {
	member, err := s.households.GetMember(householdID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return errs.NotFound("household not found")
	}
	if !access.AtLeast(access.Role(member.Role), min) {
		return errs.Forbidden("%s role required", min)
	}
	return nil
}

func (s *RecipeStore) Create(householdID, name string, tags []string, ingredients []model.NewIngredient, actorID string) (*model.Recipe, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := s.requireMember(householdID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO recipes (id, household_id, name, tags, created_by, updated_by) VALUES (?, ?, ?, ?, ?, ?)`,
		id, householdID, name, joinTags(tags), actorID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	if err := insertIngredients(tx, id, ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.get(id)
}

func insertIngredients(tx *sql.Tx, recipeID string, ingredients []model.NewIngredient) error {
	for i, ing := range ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			return errs.Validation("ingredient name cannot be empty")
		}
		_, err := tx.Exec(
			`INSERT INTO recipe_ingredients (id, recipe_id, name, qty, unit_id, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), recipeID, name, ing.Qty, ing.UnitID, i+1,
		)
		if err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	return nil
}

func (s *RecipeStore) get(recipeID string) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, recipeID)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// GetByID returns the recipe if the actor belongs to its household.
func (s *RecipeStore) GetByID(recipeID, actorID string) (*model.Recipe, error) {
	r, err := s.get(recipeID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errs.NotFound("recipe not found")
	}
	if err := s.requireMember(r.HouseholdID, actorID, access.RoleViewer); err != nil {
		return nil, errs.NotFound("recipe not found")
	}
	return r, nil
}

func (s *RecipeStore) ListForHousehold(householdID, actorID string) ([]model.Recipe, error) {
	if err := s.requireMember(householdID, actorID, access.RoleViewer); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT `+recipeCols+` FROM recipes WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) ListIngredients(recipeID, actorID string) ([]model.RecipeIngredient, error) {
	if _, err := s.GetByID(recipeID, actorID); err != nil {
		return nil, err
	}
	return s.ingredients(recipeID)
}

func (s *RecipeStore) ingredients(recipeID string) ([]model.RecipeIngredient, error) {
	rows, err := s.db.Query(
		`SELECT id, recipe_id, name, qty, unit_id, sort_order, created_at
		 FROM recipe_ingredients WHERE recipe_id = ? ORDER BY sort_order ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var ings []model.RecipeIngredient
	for rows.Next() {
		var ing model.RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Qty, &ing.UnitID, &ing.SortOrder, &ing.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ings = append(ings, ing)
	}
	return ings, rows.Err()
}

// Update replaces the recipe's name, tags and full ingredient list in one
// transaction.
func (s *RecipeStore) Update(recipeID, name string, tags []string, ingredients []model.NewIngredient, actorID string) (*model.Recipe, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	r, err := s.get(recipeID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errs.NotFound("recipe not found")
	}
	if err := s.requireMember(r.HouseholdID, actorID, access.RoleEditor); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE recipes SET name = ?, tags = ?, updated_by = ?, updated_at = datetime('now') WHERE id = ?`,
		name, joinTags(tags), actorID, recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("delete old ingredients: %w", err)
	}
	if err := insertIngredients(tx, recipeID, ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.get(recipeID)
}

func (s *RecipeStore) Delete(recipeID, actorID string) error {
	r, err := s.get(recipeID)
	if err != nil {
		return err
	}
	if r == nil {
		return errs.NotFound("recipe not found")
	}
	if err := s.requireMember(r.HouseholdID, actorID, access.RoleEditor); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// AddToList sends every ingredient to the store's shopping list: each one
// is resolved to a catalog item by name (created if needed) and upserted as
// a list entry. Running it twice leaves the list unchanged apart from
// merged quantities. The actor needs editor on the store and membership in
// the recipe's household.
func (s *RecipeStore) AddToList(recipeID, storeID, actorID string) ([]model.ListEntry, error) {
	r, err := s.GetByID(recipeID, actorID)
	if err != nil {
		return nil, err
	}
	ings, err := s.ingredients(r.ID)
	if err != nil {
		return nil, err
	}

	var entries []model.ListEntry
	for _, ing := range ings {
		item, err := s.items.CreateOrGet(storeID, ing.Name, nil, actorID)
		if err != nil {
			return nil, fmt.Errorf("resolve ingredient %q: %w", ing.Name, err)
		}
		entry, err := s.lists.UpsertEntry(model.NewEntry{
			StoreID: storeID,
			Body:    model.CatalogRef{StoreItemID: item.ID, Qty: ing.Qty, UnitID: ing.UnitID},
		}, actorID)
		if err != nil {
			return nil, fmt.Errorf("add ingredient %q: %w", ing.Name, err)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
