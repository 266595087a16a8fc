package notify

import (
	"fmt"
	"strings"

	"github.com/matheuskafuri/dropwatch/internal/store"
)

const deadlineLayout = "2006-01-02 15:04 UTC"

func orUnknown(s *string) string {
	if s == nil {
		return "Unknown"
	}
	return *s
}

// FormatText renders o as a plain-text alert.
func FormatText(o store.Opportunity) string {
	var b strings.Builder
	b.WriteString("New Airdrop/Testnet Opportunity!\n\n")
	fmt.Fprintf(&b, "Project: %s\n", orUnknown(o.ProjectName))
	fmt.Fprintf(&b, "Token: %s\n", orUnknown(o.TokenSymbol))
	fmt.Fprintf(&b, "Confidence Score: %.1f%%\n\n", o.ConfidenceScore)
	if o.Description != nil {
		b.WriteString(*o.Description + "\n\n")
	}
	if o.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", o.Deadline.UTC().Format(deadlineLayout))
	}
	if o.ParticipationSteps != nil {
		fmt.Fprintf(&b, "\nHow to Participate:\n%s\n", *o.ParticipationSteps)
	}
	fmt.Fprintf(&b, "\nSource: %s", o.SourceURL)
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

func md(s string) string { return markdownEscaper.Replace(s) }

// FormatMarkdown renders o for Telegram's legacy Markdown parse mode.
func FormatMarkdown(o store.Opportunity) string {
	var b strings.Builder
	b.WriteString("🚀 *New Airdrop/Testnet Opportunity!*\n\n")
	fmt.Fprintf(&b, "*Project:* %s\n", md(orUnknown(o.ProjectName)))
	fmt.Fprintf(&b, "*Token:* %s\n", md(orUnknown(o.TokenSymbol)))
	fmt.Fprintf(&b, "*Confidence:* %.1f%%\n\n", o.ConfidenceScore)
	if o.Description != nil {
		b.WriteString(md(*o.Description) + "\n\n")
	}
	if o.Deadline != nil {
		fmt.Fprintf(&b, "*Deadline:* %s\n", o.Deadline.UTC().Format(deadlineLayout))
	}
	if o.ParticipationSteps != nil {
		fmt.Fprintf(&b, "\n*How to Participate:*\n%s\n", md(*o.ParticipationSteps))
	}
	fmt.Fprintf(&b, "\n[View Post](%s)", o.SourceURL)
	return b.String()
}

// EmailSubject is the subject line for a batch of n alerts.
func EmailSubject(n int) string {
	return fmt.Sprintf("New Airdrop Opportunities (%d)", n)
}

// EmailBody joins the plain-text alerts for ops.
func EmailBody(ops []store.Opportunity) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = FormatText(o)
	}
	sep := "\n\n" + strings.Repeat("=", 50) + "\n\n"
	return "Here are the latest airdrop and testnet opportunities:" + sep + strings.Join(parts, sep) + "\n"
}
