package tools

import (
	"context"
	"fmt"
)

// documentSearcher answers similarity searches, serialized as JSON.
type documentSearcher interface {
	SearchJSON(ctx context.Context, query string, topK int) (string, error)
}

// SearchDocuments returns the search_documents tool, which lets the
// model query the user's indexed documents.
func SearchDocuments(searcher documentSearcher, defaultTopK int) Tool {
	return Tool{
		Name:        "search_documents",
		Description: "Search the user's indexed documents and return the most relevant passages.",
		Parameters:  schemaFor(&SearchDocumentsInput{}),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			var input SearchDocumentsInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			if input.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			topK := input.TopK
			if topK <= 0 {
				topK = defaultTopK
			}
			return searcher.SearchJSON(ctx, input.Query, topK)
		},
	}
}
