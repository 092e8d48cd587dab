package images

import "strings"

// categoryImages are stable stock references per topic category.
var categoryImages = map[string]string{
	"politics":      "https://images.unsplash.com/photo-1529107386315-e1a2ed48a620?w=1200&q=80",
	"technology":    "https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=1200&q=80",
	"business":      "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?w=1200&q=80",
	"health":        "https://images.unsplash.com/photo-1576091160399-112ba8d25d1f?w=1200&q=80",
	"environment":   "https://images.unsplash.com/photo-1569163139394-de4e5f43e4e3?w=1200&q=80",
	"international": "https://images.unsplash.com/photo-1526666923127-b2970f64b422?w=1200&q=80",
	"general":       "https://images.unsplash.com/photo-1504711434969-e33886168f5c?w=1200&q=80",
}

// Fallback returns the stock image for a category, or the general one.
func Fallback(category string) string {
	if u, ok := categoryImages[strings.ToLower(category)]; ok {
		return u
	}
	return categoryImages["general"]
}
