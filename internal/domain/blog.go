package domain

import (
	"strings"
	"time"
)

const excerptLen = 160

type BlogPost struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}

// Summary returns the excerpt, or the start of the content cut on a rune boundary.
func (b BlogPost) Summary() string {
	if b.Excerpt != "" {
		return b.Excerpt
	}
	runes := []rune(strings.TrimSpace(b.Content))
	if len(runes) <= excerptLen {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:excerptLen])) + "…"
}

func (b BlogPost) Image() string {
	if b.CoverImage != "" {
		return b.CoverImage
	}
	return PlaceholderImage
}

func (b BlogPost) Byline() string {
	if b.Author != "" {
		return b.Author
	}
	return "Festa Decor"
}
