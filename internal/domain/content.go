package domain

import (
	"fmt"
	"math"
	"strings"
)

// wordsPerMinute is the reading speed behind BlogPost.ReadTime.
const wordsPerMinute = 200

// Recipe is one entry of the recipe library. Ingredients, instructions and
// notes are authored in markdown and served as written.
type Recipe struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	PrepTime     string   `json:"prep_time"`
	CookTime     string   `json:"cook_time"`
	Servings     int      `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Excerpt      string   `json:"excerpt"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Notes        string   `json:"notes,omitempty"`
	Tags         []string `json:"tags"`
}

// BlogPost is one article of the blog. Content is markdown.
type BlogPost struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	ReadTime string   `json:"read_time"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
}

// EstimateReadTime renders the reading time of markdown content as
// "N min read".
func EstimateReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return fmt.Sprintf("%d min read", max(1, minutes))
}
