package domain

// ExtractedDocument is the raw output of the document-content extraction
// collaborator, before classification.
type ExtractedDocument struct {
	PageCount int
	Text      string
}

// RawSummary is the parsed body of one successful summarization-backend
// response.
type RawSummary struct {
	CompanyName string
	Sentiment   string
	Points      []string
}
