package domain

import "encoding/json"

// SummaryKind tags the three possible per-announcement outcomes.
type SummaryKind string

const (
	KindSummary SummaryKind = "summary"
	KindWebLink SummaryKind = "web_link"
	KindError   SummaryKind = "error"
)

// Error kinds carried by SummaryResult when Kind == KindError.
const (
	ErrKindGeminiText    = "gemini_text_error"
	ErrKindGeminiMedia   = "gemini_media_error"
	ErrKindMediaPipeline = "media_summarization_error"
	ErrKindNoContent     = "no_actionable_content"
	ErrKindProcessing    = "processing_error"
)

// SummaryResult is the closed outcome of classifying and summarizing one
// announcement. Exactly one of the three variants is populated, selected
// by Kind; every consumer switches on Kind exhaustively.
type SummaryResult struct {
	Kind        SummaryKind
	CompanyName string
	OriginalURL string

	// KindSummary fields.
	Sentiment  string
	Points     []string
	InnerLinks []Link

	// KindWebLink fields.
	WebLinks []Link

	// KindError fields.
	ErrorKind string
	Message   string
}

// NewSummary builds the success variant produced by a summarization call.
func NewSummary(company, sentiment string, points []string, originalURL string, inner []Link) SummaryResult {
	return SummaryResult{
		Kind:        KindSummary,
		CompanyName: company,
		Sentiment:   sentiment,
		Points:      points,
		OriginalURL: originalURL,
		InnerLinks:  inner,
	}
}

// NewWebLink builds the variant for documents that only pointed at web pages.
func NewWebLink(company string, links []Link, originalURL string) SummaryResult {
	return SummaryResult{
		Kind:        KindWebLink,
		CompanyName: company,
		WebLinks:    links,
		OriginalURL: originalURL,
	}
}

// NewSummaryError builds the terminal error variant.
func NewSummaryError(errorKind, message, company, originalURL string) SummaryResult {
	return SummaryResult{
		Kind:        KindError,
		CompanyName: company,
		ErrorKind:   errorKind,
		Message:     message,
		OriginalURL: originalURL,
	}
}

// Status maps the outcome onto the persisted processing status.
func (r SummaryResult) Status() Status {
	if r.Kind == KindError {
		return StatusErrorProcessing
	}
	return StatusProcessed
}

type summaryJSON struct {
	CompanyName   string   `json:"company_name"`
	Type          string   `json:"type"`
	SummaryPoints []string `json:"summary_points,omitempty"`
	Sentiment     string   `json:"sentiment,omitempty"`
	Links         []link   `json:"links,omitempty"`
	OriginalURL   string   `json:"original_pdf_url,omitempty"`
	ErrorType     string   `json:"error_type,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type link struct {
	URL  string `json:"url"`
	Kind string `json:"link_type"`
}

// MarshalJSON renders the wire/persistence shape shared with the
// summarization collaborator.
func (r SummaryResult) MarshalJSON() ([]byte, error) {
	out := summaryJSON{
		CompanyName:   r.CompanyName,
		Type:          string(r.Kind),
		SummaryPoints: r.Points,
		Sentiment:     r.Sentiment,
		OriginalURL:   r.OriginalURL,
		ErrorType:     r.ErrorKind,
		Message:       r.Message,
	}
	src := r.InnerLinks
	if r.Kind == KindWebLink {
		src = r.WebLinks
	}
	for _, l := range src {
		out.Links = append(out.Links, link{URL: l.URL, Kind: string(l.Kind)})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a persisted outcome.
func (r *SummaryResult) UnmarshalJSON(data []byte) error {
	var in summaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = SummaryResult{
		Kind:        SummaryKind(in.Type),
		CompanyName: in.CompanyName,
		Sentiment:   in.Sentiment,
		Points:      in.SummaryPoints,
		OriginalURL: in.OriginalURL,
		ErrorKind:   in.ErrorType,
		Message:     in.Message,
	}
	for _, l := range in.Links {
		converted := Link{URL: l.URL, Kind: LinkKind(l.Kind)}
		if r.Kind == KindWebLink {
			r.WebLinks = append(r.WebLinks, converted)
		} else {
			r.InnerLinks = append(r.InnerLinks, converted)
		}
	}
	return nil
}

// NotificationTask is one deferred outbound message: the outcome to
// announce plus nothing else. The queue owns a task from enqueue until its
// single dispatch; a failed dispatch is not retried at the task level.
type NotificationTask struct {
	Result SummaryResult
}
