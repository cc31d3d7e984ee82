package tools

import "github.com/cipchat/orchestrator/pkg/mcp"

const (
	RetrievalProviderName = "retrieval"

	ToolListDocuments   = "list_documents"
	ToolGetDocument     = "get_document"
	ToolSearchDocuments = "search_documents"
)

// NewRetrievalProvider serves the document-retrieval backend. Listing and
// searching are tenant scoped; fetching by document id is globally
// addressable and gets no tenant injection.
func NewRetrievalProvider(baseURL string, client *mcp.Client) *BuiltinProvider {
	return &BuiltinProvider{
		name:    RetrievalProviderName,
		baseURL: baseURL,
		client:  client,
		descriptors: []mcp.ToolDescriptor{
			{
				Name:        ToolListDocuments,
				Description: "List the tenant's documents. Returns the title and id of each document.",
				InputSchema: objectSchema(map[string]any{}),
			},
			{
				Name:        ToolGetDocument,
				Description: "Fetch the full text of one document by id. Use after list_documents or search_documents.",
				InputSchema: objectSchema(map[string]any{
					"document_id": stringParam("UUID of the document"),
				}, "document_id"),
			},
			{
				Name:        ToolSearchDocuments,
				Description: "Search the tenant's documents with a free-text query. Returns matching fragments with document ids.",
				InputSchema: objectSchema(map[string]any{
					"query": stringParam("Free-text search query"),
				}, "query"),
			},
		},
		scoped: map[string]bool{
			ToolListDocuments:   true,
			ToolSearchDocuments: true,
		},
	}
}
