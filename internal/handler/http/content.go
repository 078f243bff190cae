package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/content"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// ContentHandler handles HTTP requests for recipe and blog endpoints.
type ContentHandler struct {
	library *content.Library
	logger  *slog.Logger
}

// NewContentHandler creates a new content HTTP handler.
func NewContentHandler(library *content.Library, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{library: library, logger: logger}
}

// --- Request DTOs ---

// RecipeRequest is the JSON body of the recipe editor.
type RecipeRequest struct {
	Title        string   `json:"title" validate:"notblank,max=200"`
	Category     string   `json:"category" validate:"oneof=Breakfast Lunch Dinner Dessert Snacks"`
	PrepTime     string   `json:"prep_time" validate:"max=40"`
	CookTime     string   `json:"cook_time" validate:"max=40"`
	Servings     int      `json:"servings" validate:"gte=0,lte=100"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Excerpt      string   `json:"excerpt" validate:"max=500"`
	Description  string   `json:"description" validate:"notblank"`
	Image        string   `json:"image"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1,dive,notblank"`
	Instructions []string `json:"instructions" validate:"required,min=1,dive,notblank"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

func (req RecipeRequest) recipe() domain.Recipe {
	return domain.Recipe{
		Title:        strings.TrimSpace(req.Title),
		Category:     req.Category,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Excerpt:      req.Excerpt,
		Description:  req.Description,
		Image:        req.Image,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Notes:        req.Notes,
		Tags:         cleanTags(req.Tags),
	}
}

// BlogPostRequest is the JSON body of the blog editor. A blank date is today.
type BlogPostRequest struct {
	Title    string   `json:"title" validate:"notblank,max=200"`
	Category string   `json:"category" validate:"oneof=Recipes DIY Education Events"`
	Author   string   `json:"author" validate:"notblank,max=100"`
	Date     string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Excerpt  string   `json:"excerpt" validate:"max=500"`
	Content  string   `json:"content" validate:"notblank"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
}

func (req BlogPostRequest) post() domain.BlogPost {
	return domain.BlogPost{
		Title:    strings.TrimSpace(req.Title),
		Category: req.Category,
		Author:   strings.TrimSpace(req.Author),
		Date:     req.Date,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		Image:    req.Image,
		Tags:     cleanTags(req.Tags),
	}
}

// cleanTags trims tags and drops blank ones.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// --- Response DTOs ---

type recipeListResponse struct {
	Recipes    []domain.Recipe `json:"recipes"`
	Total      int             `json:"total"`
	Categories []string        `json:"categories"`
}

type blogListResponse struct {
	Posts      []domain.BlogPost `json:"posts"`
	Total      int               `json:"total"`
	Categories []string          `json:"categories"`
}

// --- Handlers ---

// ListRecipes handles GET /api/v1/recipes
func (h *ContentHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes := h.library.Recipes(contentFilter(r))
	httputil.WriteData(w, http.StatusOK, recipeListResponse{
		Recipes:    recipes,
		Total:      len(recipes),
		Categories: content.RecipeCategories,
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *ContentHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := contentID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	recipe, err := h.library.Recipe(id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/v1/admin/recipes
func (h *ContentHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, h.library.CreateRecipe(req.recipe()))
}

// UpdateRecipe handles PUT /api/v1/admin/recipes/{id}
func (h *ContentHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := contentID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	var req RecipeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	recipe, err := h.library.UpdateRecipe(id, req.recipe())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, recipe)
}

// ListPosts handles GET /api/v1/blog
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.library.Posts(contentFilter(r))
	httputil.WriteData(w, http.StatusOK, blogListResponse{
		Posts:      posts,
		Total:      len(posts),
		Categories: content.BlogCategories,
	})
}

// GetPost handles GET /api/v1/blog/{id}
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := contentID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	post, err := h.library.Post(id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, post)
}

// CreatePost handles POST /api/v1/admin/blog
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req BlogPostRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, h.library.CreatePost(req.post()))
}

// UpdatePost handles PUT /api/v1/admin/blog/{id}
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := contentID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	var req BlogPostRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	post, err := h.library.UpdatePost(id, req.post())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, post)
}

func contentFilter(r *http.Request) content.Filter {
	q := r.URL.Query()
	return content.Filter{Category: q.Get("category"), Query: q.Get("q")}
}

func contentID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, apperrors.InvalidInput("id must be a positive integer")
	}
	return id, nil
}
