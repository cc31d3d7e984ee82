package chat

import "testing"

func TestRewriteGalleryPaths(t *testing.T) {
	const base = "https://chat.example.com"

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "bare path",
			text:     "Image: /api/v1/tenants/abc/me/gallery/g1/photo.jpg",
			expected: "Image: https://chat.example.com/api/v1/tenants/abc/me/gallery/g1/photo.jpg",
		},
		{
			name:     "multiple paths",
			text:     "/api/v1/tenants/a/me/gallery/x/1 and /api/v1/tenants/a/me/gallery/x/2",
			expected: "https://chat.example.com/api/v1/tenants/a/me/gallery/x/1 and https://chat.example.com/api/v1/tenants/a/me/gallery/x/2",
		},
		{
			name:     "double quoted path untouched",
			text:     `<img src="/api/v1/tenants/a/me/gallery/x/1">`,
			expected: `<img src="/api/v1/tenants/a/me/gallery/x/1">`,
		},
		{
			name:     "single quoted path untouched",
			text:     `src='/api/v1/tenants/a/me/gallery/x/1'`,
			expected: `src='/api/v1/tenants/a/me/gallery/x/1'`,
		},
		{
			name:     "markdown link path rewritten",
			text:     "[photo](/api/v1/tenants/a/me/gallery/x/1.jpg)",
			expected: "[photo](https://chat.example.com/api/v1/tenants/a/me/gallery/x/1.jpg)",
		},
		{
			name:     "unrelated api path untouched",
			text:     "/api/v1/tenants/a/me/settings",
			expected: "/api/v1/tenants/a/me/settings",
		},
		{
			name:     "no paths",
			text:     "just text",
			expected: "just text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteGalleryPaths(tt.text, base); got != tt.expected {
				t.Errorf("RewriteGalleryPaths() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRewriteGalleryPaths_EmptyBase(t *testing.T) {
	text := "/api/v1/tenants/a/me/gallery/x/1"
	if got := RewriteGalleryPaths(text, ""); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestRewriteGalleryPaths_TrailingSlashBase(t *testing.T) {
	got := RewriteGalleryPaths("/api/v1/tenants/a/me/gallery/x/1", "https://chat.example.com/")
	want := "https://chat.example.com/api/v1/tenants/a/me/gallery/x/1"
	if got != want {
		t.Errorf("RewriteGalleryPaths() = %q, want %q", got, want)
	}
}
