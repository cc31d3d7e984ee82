package tools

import "github.com/cipchat/orchestrator/pkg/mcp"

const (
	GalleryProviderName = "gallery"

	ToolListGalleries = "list_galleries"
	ToolShowGallery   = "show_gallery"
)

// NewGalleryProvider serves the media-gallery backend. Both tools are
// tenant scoped; neither schema mentions the tenant id.
func NewGalleryProvider(baseURL string, client *mcp.Client) *BuiltinProvider {
	return &BuiltinProvider{
		name:    GalleryProviderName,
		baseURL: baseURL,
		client:  client,
		descriptors: []mcp.ToolDescriptor{
			{
				Name:        ToolListGalleries,
				Description: "List the tenant's image galleries. Returns the title, id and description of each gallery.",
				InputSchema: objectSchema(map[string]any{}),
			},
			{
				Name:        ToolShowGallery,
				Description: "Show the contents of a gallery by id: a list of image URLs. Use after list_galleries.",
				InputSchema: objectSchema(map[string]any{
					"group_id": stringParam("UUID of the gallery (group)"),
				}, "group_id"),
			},
		},
		scoped: map[string]bool{
			ToolListGalleries: true,
			ToolShowGallery:   true,
		},
	}
}
