package chat

import (
	"regexp"
	"strings"
)

// Matches internal gallery file paths as produced by show_gallery, with an
// optional leading quote captured so already-quoted occurrences (markdown
// image JSON, href attributes) can be left alone.
var galleryPathPattern = regexp.MustCompile(`["']?/api/v1/tenants/[^/\s"']+/me/gallery/[^\s"']+`)

// RewriteGalleryPaths prefixes bare internal gallery paths with the public
// base URL so they resolve outside the cluster. No other substring is
// touched.
func RewriteGalleryPaths(text, publicBaseURL string) string {
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		return text
	}

	return galleryPathPattern.ReplaceAllStringFunc(text, func(match string) string {
		if strings.HasPrefix(match, `"`) || strings.HasPrefix(match, `'`) {
			return match
		}
		return base + match
	})
}
