// Package content serves the recipe library and the blog from embedded feeds.
// Editor changes are held in memory for the life of the process.
package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

// AllCategories is the category filter that matches every entry.
const AllCategories = "All"

// Category filters offered by the recipe library and the blog, in display order.
var (
	RecipeCategories = []string{AllCategories, "Breakfast", "Lunch", "Dinner", "Dessert", "Snacks"}
	BlogCategories   = []string{AllCategories, "Recipes", "DIY", "Education", "Events"}
)

var (
	//go:embed recipes.json
	defaultRecipes []byte

	//go:embed blog_posts.json
	defaultPosts []byte
)

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Category string
	Query    string
}

// matches reports whether an entry passes f. The query matches the title,
// the excerpt or any tag case-insensitively.
func (f Filter) matches(category, title, excerpt string, tags []string) bool {
	if f.Category != "" && f.Category != AllCategories && category != f.Category {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(title), query) || strings.Contains(strings.ToLower(excerpt), query) {
		return true
	}
	return slices.ContainsFunc(tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), query)
	})
}

// Library holds recipes and blog posts.
type Library struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	recipes []domain.Recipe
	posts   []domain.BlogPost
}

// New loads the embedded recipe and blog feeds.
func New(logger *slog.Logger) (*Library, error) {
	var recipes []domain.Recipe
	if err := json.Unmarshal(defaultRecipes, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	var posts []domain.BlogPost
	if err := json.Unmarshal(defaultPosts, &posts); err != nil {
		return nil, fmt.Errorf("decode blog posts: %w", err)
	}
	if err := uniqueIDs("recipe", recipes, func(r domain.Recipe) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := uniqueIDs("blog post", posts, func(p domain.BlogPost) int { return p.ID }); err != nil {
		return nil, err
	}

	logger.Info("content loaded", slog.Int("recipes", len(recipes)), slog.Int("posts", len(posts)))
	return &Library{logger: logger, now: time.Now, recipes: recipes, posts: posts}, nil
}

func uniqueIDs[T any](kind string, items []T, id func(T) int) error {
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		n := id(it)
		if n < 1 {
			return fmt.Errorf("decode %s feed: id %d is not positive", kind, n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("decode %s feed: duplicate id %d", kind, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Recipes returns the recipes matching f in feed order.
func (l *Library) Recipes(f Filter) []domain.Recipe {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Recipe, 0, len(l.recipes))
	for _, r := range l.recipes {
		if f.matches(r.Category, r.Title, r.Excerpt, r.Tags) {
			out = append(out, r)
		}
	}
	return out
}

// Recipe returns recipe id.
func (l *Library) Recipe(id int) (domain.Recipe, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := slices.IndexFunc(l.recipes, func(r domain.Recipe) bool { return r.ID == id })
	if i < 0 {
		return domain.Recipe{}, apperrors.NotFound("recipe", strconv.Itoa(id))
	}
	return l.recipes[i], nil
}

// CreateRecipe appends r under the next free id.
func (l *Library) CreateRecipe(r domain.Recipe) domain.Recipe {
	l.mu.Lock()
	r.ID = 1
	for _, existing := range l.recipes {
		r.ID = max(r.ID, existing.ID+1)
	}
	l.recipes = append(l.recipes, r)
	l.mu.Unlock()

	l.logger.Info("recipe created", slog.Int("recipe_id", r.ID), slog.String("title", r.Title))
	return r
}

// UpdateRecipe replaces recipe id with r.
func (l *Library) UpdateRecipe(id int, r domain.Recipe) (domain.Recipe, error) {
	l.mu.Lock()
	i := slices.IndexFunc(l.recipes, func(existing domain.Recipe) bool { return existing.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return domain.Recipe{}, apperrors.NotFound("recipe", strconv.Itoa(id))
	}
	r.ID = id
	l.recipes[i] = r
	l.mu.Unlock()

	l.logger.Info("recipe updated", slog.Int("recipe_id", id))
	return r, nil
}

// Posts returns the blog posts matching f in feed order.
func (l *Library) Posts(f Filter) []domain.BlogPost {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.BlogPost, 0, len(l.posts))
	for _, p := range l.posts {
		if f.matches(p.Category, p.Title, p.Excerpt, p.Tags) {
			out = append(out, p)
		}
	}
	return out
}

// Post returns blog post id.
func (l *Library) Post(id int) (domain.BlogPost, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := slices.IndexFunc(l.posts, func(p domain.BlogPost) bool { return p.ID == id })
	if i < 0 {
		return domain.BlogPost{}, apperrors.NotFound("blog post", strconv.Itoa(id))
	}
	return l.posts[i], nil
}

// CreatePost appends p under the next free id. The read time is derived from
// the content and a blank date becomes today.
func (l *Library) CreatePost(p domain.BlogPost) domain.BlogPost {
	l.mu.Lock()
	l.prepare(&p)
	p.ID = 1
	for _, existing := range l.posts {
		p.ID = max(p.ID, existing.ID+1)
	}
	l.posts = append(l.posts, p)
	l.mu.Unlock()

	l.logger.Info("blog post created", slog.Int("post_id", p.ID), slog.String("title", p.Title))
	return p
}

// UpdatePost replaces blog post id with p.
func (l *Library) UpdatePost(id int, p domain.BlogPost) (domain.BlogPost, error) {
	l.mu.Lock()
	i := slices.IndexFunc(l.posts, func(existing domain.BlogPost) bool { return existing.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return domain.BlogPost{}, apperrors.NotFound("blog post", strconv.Itoa(id))
	}
	l.prepare(&p)
	p.ID = id
	l.posts[i] = p
	l.mu.Unlock()

	l.logger.Info("blog post updated", slog.Int("post_id", id))
	return p, nil
}

func (l *Library) prepare(p *domain.BlogPost) {
	p.ReadTime = domain.EstimateReadTime(p.Content)
	if strings.TrimSpace(p.Date) == "" {
		p.Date = l.now().UTC().Format(time.DateOnly)
	}
}

// Counts returns the number of recipes and blog posts.
func (l *Library) Counts() (recipes, posts int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.recipes), len(l.posts)
}
