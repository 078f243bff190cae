package content

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return lib
}

func recipeIDs(recipes []domain.Recipe) []int {
	ids := make([]int, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	return ids
}

func postIDs(posts []domain.BlogPost) []int {
	ids := make([]int, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestNew_LoadsEmbeddedFeeds(t *testing.T) {
	lib := newTestLibrary(t)

	recipes, posts := lib.Counts()
	assert.Equal(t, 6, recipes)
	assert.Equal(t, 6, posts)

	for _, r := range lib.Recipes(Filter{}) {
		assert.Contains(t, RecipeCategories, r.Category, "recipe %d", r.ID)
		assert.NotEmpty(t, r.Ingredients, "recipe %d", r.ID)
		assert.NotEmpty(t, r.Instructions, "recipe %d", r.ID)
	}
	for _, p := range lib.Posts(Filter{}) {
		assert.Contains(t, BlogCategories, p.Category, "post %d", p.ID)
		_, err := time.Parse(time.DateOnly, p.Date)
		assert.NoError(t, err, "post %d", p.ID)
	}
}

func TestRecipes_Filter(t *testing.T) {
	lib := newTestLibrary(t)

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"everything", Filter{}, []int{1, 2, 3, 4, 5, 6}},
		{"all category", Filter{Category: AllCategories}, []int{1, 2, 3, 4, 5, 6}},
		{"category", Filter{Category: "Breakfast"}, []int{4, 5}},
		{"title query is case-insensitive", Filter{Query: "TEMPEH"}, []int{1, 6}},
		{"tag query", Filter{Query: "no-bake"}, []int{2}},
		{"category and query", Filter{Category: "Lunch", Query: "tempeh"}, []int{6}},
		{"unknown category", Filter{Category: "Brunch"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recipeIDs(lib.Recipes(tt.filter)))
		})
	}
}

func TestPosts_Filter(t *testing.T) {
	lib := newTestLibrary(t)

	assert.Equal(t, []int{2, 3, 6}, postIDs(lib.Posts(Filter{Query: "ferment"})))
	assert.Equal(t, []int{2, 6}, postIDs(lib.Posts(Filter{Category: "DIY", Query: "  ferment "})))
	assert.Equal(t, []int{4}, postIDs(lib.Posts(Filter{Category: "Events"})))
}

func TestRecipe_NotFound(t *testing.T) {
	lib := newTestLibrary(t)

	r, err := lib.Recipe(2)
	require.NoError(t, err)
	assert.Equal(t, "Chocolate Avocado Mousse", r.Title)

	_, err = lib.Recipe(99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = lib.Post(99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateRecipe_AssignsNextID(t *testing.T) {
	lib := newTestLibrary(t)

	created := lib.CreateRecipe(domain.Recipe{ID: 3, Title: "Miso Soup", Category: "Lunch"})
	assert.Equal(t, 7, created.ID)

	got, err := lib.Recipe(7)
	require.NoError(t, err)
	assert.Equal(t, "Miso Soup", got.Title)

	original, err := lib.Recipe(3)
	require.NoError(t, err)
	assert.Equal(t, "Vegan Cheese Platter", original.Title)

	assert.Equal(t, 8, lib.CreateRecipe(domain.Recipe{Title: "Dal"}).ID)
}

func TestUpdateRecipe(t *testing.T) {
	lib := newTestLibrary(t)

	updated, err := lib.UpdateRecipe(1, domain.Recipe{ID: 42, Title: "10-Minute Tempeh Stir Fry", Category: "Dinner"})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ID)

	got, err := lib.Recipe(1)
	require.NoError(t, err)
	assert.Equal(t, "10-Minute Tempeh Stir Fry", got.Title)

	_, err = lib.UpdateRecipe(99, domain.Recipe{Title: "Ghost"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	recipes, _ := lib.Counts()
	assert.Equal(t, 6, recipes)
}

func TestCreatePost_DerivesReadTimeAndDate(t *testing.T) {
	lib := newTestLibrary(t)
	lib.now = func() time.Time { return time.Date(2026, 10, 14, 23, 30, 0, 0, time.UTC) }

	created := lib.CreatePost(domain.BlogPost{
		Title:    "Koji Basics",
		Category: "Education",
		ReadTime: "99 min read",
		Content:  strings.Repeat("word ", 401),
	})
	assert.Equal(t, 7, created.ID)
	assert.Equal(t, "3 min read", created.ReadTime)
	assert.Equal(t, "2026-10-14", created.Date)

	dated := lib.CreatePost(domain.BlogPost{Title: "Tempeh Night", Date: "2026-11-01", Content: "Bring a jar."})
	assert.Equal(t, "2026-11-01", dated.Date)
	assert.Equal(t, "1 min read", dated.ReadTime)
}

func TestUpdatePost(t *testing.T) {
	lib := newTestLibrary(t)

	updated, err := lib.UpdatePost(4, domain.BlogPost{Title: "Cheese Workshop Moved", Date: "2024-04-01", Content: "New venue."})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.ID)
	assert.Equal(t, "1 min read", updated.ReadTime)

	got, err := lib.Post(4)
	require.NoError(t, err)
	assert.Equal(t, "Cheese Workshop Moved", got.Title)

	_, err = lib.UpdatePost(99, domain.BlogPost{Title: "Ghost"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUniqueIDs(t *testing.T) {
	id := func(n int) int { return n }

	assert.NoError(t, uniqueIDs("recipe", []int{1, 2, 3}, id))
	assert.ErrorContains(t, uniqueIDs("recipe", []int{1, 2, 1}, id), "duplicate id 1")
	assert.ErrorContains(t, uniqueIDs("blog post", []int{0}, id), "not positive")
}
