package domain

// LinkKind distinguishes embedded document links by what they point at.
type LinkKind string

const (
	LinkWeb   LinkKind = "web"
	LinkMedia LinkKind = "media"
)

// Link is one URL extracted from a document, tagged with its kind.
type Link struct {
	URL  string
	Kind LinkKind
}

type contentKind int

const (
	contentText contentKind = iota
	contentLink
	contentErr
)

// ClassifiedContent is the closed result of document-content extraction:
// either a full transcript, a list of embedded links, or an extraction
// failure. Construct values with TextContent, LinkContent or ContentError
// and consume them through the accessor methods.
type ClassifiedContent struct {
	kind  contentKind
	body  string
	links []Link
	msg   string
}

// TextContent wraps a full-text transcript.
func TextContent(body string) ClassifiedContent {
	return ClassifiedContent{kind: contentText, body: body}
}

// LinkContent wraps an ordered list of extracted links.
func LinkContent(links []Link) ClassifiedContent {
	return ClassifiedContent{kind: contentLink, links: links}
}

// ContentError records a failed extraction.
func ContentError(msg string) ClassifiedContent {
	return ClassifiedContent{kind: contentErr, msg: msg}
}

// Text returns the transcript body and whether this is a text variant.
func (c ClassifiedContent) Text() (string, bool) {
	return c.body, c.kind == contentText
}

// Links returns the extracted links and whether this is a link variant.
func (c ClassifiedContent) Links() ([]Link, bool) {
	return c.links, c.kind == contentLink
}

// Err returns the extraction failure message and whether this is the
// error variant.
func (c ClassifiedContent) Err() (string, bool) {
	return c.msg, c.kind == contentErr
}

// MediaLinks returns the media-kind entries in extraction order.
func (c ClassifiedContent) MediaLinks() []Link {
	return c.filterLinks(LinkMedia)
}

// WebLinks returns the web-kind entries in extraction order.
func (c ClassifiedContent) WebLinks() []Link {
	return c.filterLinks(LinkWeb)
}

func (c ClassifiedContent) filterLinks(kind LinkKind) []Link {
	var out []Link
	for _, l := range c.links {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}
