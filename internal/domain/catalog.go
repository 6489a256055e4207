package domain

import "strings"

const PlaceholderImage = "/static/img/placeholder.jpg"

// Event is a decoration package offered for an occasion.
type Event struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice float64  `json:"discountPrice,omitempty"`
	Images        []string `json:"images,omitempty"`
	Occasion      string   `json:"occasion,omitempty"`
	Inclusions    []string `json:"inclusions,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
}

func (e Event) DisplayTitle() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return "Untitled package"
}

func (e Event) CoverImage() string {
	for _, img := range e.Images {
		if img != "" {
			return img
		}
	}
	return PlaceholderImage
}

// EffectivePrice is the discount price when it is a real discount.
func (e Event) EffectivePrice() float64 {
	if e.DiscountPrice > 0 && e.DiscountPrice < e.Price {
		return e.DiscountPrice
	}
	return e.Price
}

type Occasion struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

func (o Occasion) CoverImage() string {
	if o.Image != "" {
		return o.Image
	}
	return PlaceholderImage
}

// FilterByOccasion keeps events tagged with slug. An empty slug keeps all.
func FilterByOccasion(events []Event, slug string) []Event {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if strings.ToLower(e.Occasion) == slug {
			out = append(out, e)
		}
	}
	return out
}
