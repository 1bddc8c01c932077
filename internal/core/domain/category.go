package domain

import "strings"

type Category string

const (
	CategoryAll      Category = "all"
	CategoryPublic   Category = "public"
	CategoryMine     Category = "my-polls"
	CategoryOngoing  Category = "ongoing-polls"
	CategoryUpcoming Category = "upcoming-polls"
	CategoryEnded    Category = "ended-polls"
	CategoryPopular  Category = "popular-polls"
)

var Categories = []Category{
	CategoryAll,
	CategoryPublic,
	CategoryMine,
	CategoryOngoing,
	CategoryUpcoming,
	CategoryEnded,
	CategoryPopular,
}

var categoryAliases = map[string]Category{
	"mine":     CategoryMine,
	"ongoing":  CategoryOngoing,
	"upcoming": CategoryUpcoming,
	"ended":    CategoryEnded,
	"popular":  CategoryPopular,
}

func ParseCategory(value string) (Category, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if string(c) == value {
			return c, nil
		}
	}
	if c, ok := categoryAliases[value]; ok {
		return c, nil
	}
	return "", ErrCategoryNotFound
}

// PathSegment is the list endpoint suffix; "all" is served by the bare path.
func (c Category) PathSegment() string {
	if c == CategoryAll {
		return ""
	}
	return string(c)
}
