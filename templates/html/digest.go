package templates

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// DigestRow is one reported disbursement in the admin digest
type DigestRow struct {
	VictimID   string
	Nominee    string
	Amount     string
	Reason     string
	ReportedAt time.Time
}

// Digest is the content of the daily admin e-mail
type Digest struct {
	Since           time.Time
	Reported        []DigestRow
	PendingArticles int64
	PendingGallery  int64
	DashboardURL    string
}

// Subject of the digest
func (d Digest) Subject() string {
	return fmt.Sprintf("Relief Portal digest: %d reported donation(s)", len(d.Reported))
}

// RenderDigestText renders the plain text part of the digest
func RenderDigestText(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reported donations since %s: %d\n", d.Since.Format(time.RFC1123), len(d.Reported))
	for _, r := range d.Reported {
		fmt.Fprintf(&b, "- %s | %s | %s | %s\n", r.VictimID, r.Nominee, r.Amount, r.Reason)
	}
	fmt.Fprintf(&b, "\nArticles awaiting moderation: %d\nGallery items awaiting moderation: %d\n", d.PendingArticles, d.PendingGallery)
	if d.DashboardURL != "" {
		fmt.Fprintf(&b, "\n%s\n", d.DashboardURL)
	}
	return b.String()
}

// RenderDigestHTML renders the HTML part of the digest
func RenderDigestHTML(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Reported donations since %s: <strong>%d</strong></p>",
		html.EscapeString(d.Since.Format(time.RFC1123)), len(d.Reported))
	if len(d.Reported) > 0 {
		b.WriteString("<table><tr><th>Victim</th><th>Nominee</th><th>Amount</th><th>Reason</th><th>Reported</th></tr>")
		for _, r := range d.Reported {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(r.VictimID),
				html.EscapeString(r.Nominee),
				html.EscapeString(r.Amount),
				html.EscapeString(r.Reason),
				r.ReportedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("</table>")
	}
	fmt.Fprintf(&b, "<p>Articles awaiting moderation: %d<br>Gallery items awaiting moderation: %d</p>", d.PendingArticles, d.PendingGallery)
	if d.DashboardURL != "" {
		u := html.EscapeString(d.DashboardURL)
		fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, u, u)
	}
	return renderLayout(d.Subject(), b.String())
}
