package store

import (
	"testing"

	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/errs"
	"github.com/rsheldon/bramble/internal/model"
)

func setupRecipeTestDB(t *testing.T) (*RecipeStore, *HouseholdStore, *StoreStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecipeStore(db), NewHouseholdStore(db), NewStoreStore(db), NewUserStore(db)
}

func pancakeIngredients() []model.NewIngredient {
	two := 2.0
	one := 1.0
	cup := "unit-piece"
	return []model.NewIngredient{
		{Name: "Flour", Qty: &two, UnitID: &cup},
		{Name: "Eggs", Qty: &two},
		{Name: "Milk", Qty: &one},
	}
}

func TestRecipeCreateAndGet(t *testing.T) {
	rs, hs, _, us := setupRecipeTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)

	r, err := rs.Create(h.ID, "Pancakes", []string{"breakfast", "kids"}, pancakeIngredients(), alice.ID)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "breakfast" {
		t.Errorf("tags = %v, want [breakfast kids]", r.Tags)
	}

	ings, err := rs.ListIngredients(r.ID, alice.ID)
	if err != nil {
		t.Fatalf("list ingredients: %v", err)
	}
	if len(ings) != 3 {
		t.Fatalf("got %d ingredients, want 3", len(ings))
	}
	if ings[0].Name != "Flour" || ings[2].Name != "Milk" {
		t.Errorf("ingredient order wrong: %s ... %s", ings[0].Name, ings[2].Name)
	}
}

func TestRecipeVisibilityGated(t *testing.T) {
	rs, hs, _, us := setupRecipeTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	mallory := mustCreateUser(t, us, "mallory@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)

	r, _ := rs.Create(h.ID, "Pancakes", nil, pancakeIngredients(), alice.ID)

	_, err := rs.GetByID(r.ID, mallory.ID)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("outsider read: kind = %v, want not found", errs.KindOf(err))
	}
}

func TestRecipeUpdateReplacesIngredients(t *testing.T) {
	rs, hs, _, us := setupRecipeTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)

	r, _ := rs.Create(h.ID, "Pancakes", nil, pancakeIngredients(), alice.ID)

	updated, err := rs.Update(r.ID, "Waffles", []string{"breakfast"}, []model.NewIngredient{
		{Name: "Waffle Mix"},
	}, alice.ID)
	if err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	if updated.Name != "Waffles" {
		t.Errorf("name = %q, want Waffles", updated.Name)
	}

	ings, _ := rs.ListIngredients(r.ID, alice.ID)
	if len(ings) != 1 || ings[0].Name != "Waffle Mix" {
		t.Errorf("ingredients = %v, want single Waffle Mix", ings)
	}
}

func TestRecipeAddToList(t *testing.T) {
	rs, hs, ss, us := setupRecipeTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)
	st, _ := ss.Create("Corner Market", &h.ID, alice.ID)

	r, _ := rs.Create(h.ID, "Pancakes", nil, pancakeIngredients(), alice.ID)

	entries, err := rs.AddToList(r.ID, st.ID, alice.ID)
	if err != nil {
		t.Fatalf("add to list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// Each ingredient became a catalog item.
	items, _ := rs.items.Search(st.ID, "", false, 10, alice.ID)
	if len(items) != 3 {
		t.Errorf("got %d catalog items, want 3", len(items))
	}

	// Sending the recipe again merges instead of duplicating, and usage
	// counts stay at one per item.
	if _, err := rs.AddToList(r.ID, st.ID, alice.ID); err != nil {
		t.Fatalf("second add to list: %v", err)
	}
	list, _ := rs.lists.List(st.ID, false, alice.ID)
	if len(list) != 3 {
		t.Errorf("got %d list entries after re-add, want 3", len(list))
	}
	for _, it := range items {
		got, _ := rs.items.GetByID(it.ID)
		if got.UsageCount != 1 {
			t.Errorf("item %s usage = %d, want 1", got.Name, got.UsageCount)
		}
	}
}

func TestRecipeDeleteCascadesIngredients(t *testing.T) {
	rs, hs, _, us := setupRecipeTestDB(t)
	alice := mustCreateUser(t, us, "alice@example.com")
	h, _ := hs.Create("Smith Family", alice.ID)

	r, _ := rs.Create(h.ID, "Pancakes", nil, pancakeIngredients(), alice.ID)
	if err := rs.Delete(r.ID, alice.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}

	_, err := rs.GetByID(r.ID, alice.ID)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("kind = %v, want not found", errs.KindOf(err))
	}
	ings, err := rs.ingredients(r.ID)
	if err != nil {
		t.Fatalf("list ingredients: %v", err)
	}
	if len(ings) != 0 {
		t.Errorf("got %d orphaned ingredients, want 0", len(ings))
	}
}
