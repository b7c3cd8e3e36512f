package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
)

// Characters that MarkdownV2 requires escaping outside of entities.
const mdReserved = "_*[]()~`>#+-=|{}.!"

var istLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func escapeMD(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(mdReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeMDURL keeps a URL usable inside an inline link by percent
// encoding parentheses instead of backslash escaping them.
func escapeMDURL(u string) string {
	u = strings.ReplaceAll(u, "(", "%28")
	return strings.ReplaceAll(u, ")", "%29")
}

func timestampIST(now time.Time) string {
	return now.In(istLocation).Format("02 Jan 2006, 03:04 PM IST")
}

func formatSummary(r domain.SummaryResult, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s*\n", escapeMD(r.CompanyName))
	fmt.Fprintf(&b, "_%s_\n\n", escapeMD(timestampIST(now)))
	fmt.Fprintf(&b, "*Sentiment:* %s\n\n", escapeMD(r.Sentiment))

	for _, point := range r.Points {
		fmt.Fprintf(&b, "• %s\n", escapeMD(point))
	}

	if r.OriginalURL != "" || len(r.InnerLinks) > 0 {
		b.WriteString("\n" + escapeMD("----------") + "\n")
	}
	if r.OriginalURL != "" {
		fmt.Fprintf(&b, "[Original PDF](%s)\n", escapeMDURL(r.OriginalURL))
	}
	for _, link := range r.InnerLinks {
		fmt.Fprintf(&b, "[Inner Link \\(%s\\)](%s)\n", escapeMD(string(link.Kind)), escapeMDURL(link.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatWebLink(r domain.SummaryResult, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 *%s*\n", escapeMD(r.CompanyName))
	fmt.Fprintf(&b, "_%s_\n\n", escapeMD(timestampIST(now)))
	b.WriteString("Announcement points to external content:\n")

	for _, link := range r.WebLinks {
		fmt.Fprintf(&b, "[%s link](%s)\n", escapeMD(string(link.Kind)), escapeMDURL(link.URL))
	}
	if r.OriginalURL != "" {
		b.WriteString("\n" + escapeMD("----------") + "\n")
		fmt.Fprintf(&b, "[Original PDF](%s)\n", escapeMDURL(r.OriginalURL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatError(r domain.SummaryResult, now time.Time) string {
	company := r.CompanyName
	if company == "" {
		company = "Unknown Company"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ *%s*\n", escapeMD(company))
	fmt.Fprintf(&b, "_%s_\n\n", escapeMD(timestampIST(now)))
	fmt.Fprintf(&b, "Processing failed \\(%s\\):\n%s\n", escapeMD(r.ErrorKind), escapeMD(r.Message))

	if r.OriginalURL != "" {
		b.WriteString("\n" + escapeMD("----------") + "\n")
		fmt.Fprintf(&b, "[Original PDF](%s)\n", escapeMDURL(r.OriginalURL))
	}
	return strings.TrimRight(b.String(), "\n")
}
