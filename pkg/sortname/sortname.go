// Package sortname generates bibliographic sort names following ALA/Library
// of Congress conventions.
package sortname

import "strings"

// TitleArticles are articles to strip from the beginning of titles.
// These are moved to the end (e.g., "The Wheel of Time" -> "Wheel of Time, The").
var TitleArticles = []string{
	"The",
	"A",
	"An",
}

// ForTitle generates a sort title from a display title.
// Leading articles are moved to the end.
// Examples:
//   - "The Stormlight Archive" -> "Stormlight Archive, The"
//   - "A Song of Ice and Fire" -> "Song of Ice and Fire, A"
//   - "Lord of the Rings" -> "Lord of the Rings" (no change)
func ForTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	for _, article := range TitleArticles {
		prefix := article + " "
		if strings.EqualFold(title[:min(len(prefix), len(title))], prefix) && len(title) > len(prefix) {
			// Keep the article's original casing when moving it.
			actualArticle := title[:len(article)]
			rest := strings.TrimSpace(title[len(prefix):])
			if rest != "" {
				return rest + ", " + actualArticle
			}
		}
	}

	return title
}
