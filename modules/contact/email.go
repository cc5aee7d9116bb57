package contact

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// TimestampLayout formats the submission time in notification emails.
const TimestampLayout = "Monday, January 2, 2006 at 03:04 PM MST"

// Email is a message for the provider.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// LabeledField is a submission field as it appears in the email.
type LabeledField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SourcePage names the page a submission came from. The Referer wins;
// otherwise the form's own sourcePage, then "Contact Form".
func SourcePage(referer, sourcePage string) string {
	source := sourcePage
	if source == "" {
		source = "Contact Form"
	}
	if referer == "" {
		return source
	}
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return source
	}

	switch path := u.Path; path {
	case "", "/":
		return "Home Page"
	case "/contact":
		return "Contact Page"
	default:
		segment, _, _ := strings.Cut(strings.TrimLeft(path, "/"), "/")
		if segment == "" {
			return source
		}
		words := strings.Split(segment, "-")
		for i, w := range words {
			words[i] = capitalize(w)
		}
		return strings.Join(words, " ") + " Page"
	}
}

// FormatFieldName turns camelCase and snake_case keys into title-cased
// labels: "companyName" -> "Company Name", "budget_range" -> "Budget Range".
func FormatFieldName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r)
		case r == '_':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Split(b.String(), " ")
	for i, w := range words {
		words[i] = capitalize(strings.ToLower(w))
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LabeledFields lists the well-known fields first, then every other
// non-empty field in the order it was sent.
func LabeledFields(s *Submission) []LabeledField {
	var fields []LabeledField
	known := map[string]bool{"sourcePage": true}

	if s.Has("firstName") || s.Has("lastName") {
		if full := strings.TrimSpace(s.FirstName() + " " + s.LastName()); full != "" {
			fields = append(fields, LabeledField{"Full Name", full})
			known["firstName"], known["lastName"] = true, true
		}
	}
	for _, f := range []struct{ key, label string }{
		{"email", "Email Address"},
		{"website", "Website"},
		{"phone", "Phone Number"},
	} {
		if v := s.Get(f.key); v != "" {
			fields = append(fields, LabeledField{f.label, v})
			known[f.key] = true
		}
	}

	for _, f := range s.Fields() {
		if known[f.Key] {
			continue
		}
		if f.Value.Type == gjson.Null || (f.Value.Type == gjson.String && f.Value.Str == "") {
			continue
		}
		label := FormatFieldName(f.Key)
		if label == "" {
			continue
		}
		value := truthy(f.Value)
		if f.Value.Type == gjson.False {
			value = "false"
		}
		fields = append(fields, LabeledField{label, value})
	}
	return fields
}

// Subject is the notification subject line.
func Subject(s *Submission) string {
	if s.FormType() == "simple" {
		website := s.Website()
		if website == "" {
			website = "Website Inquiry"
		}
		return fmt.Sprintf("🎯 New Lead: %s - %s", website, s.UserName())
	}
	return "📧 New Contact Form Submission from " + s.UserName()
}

// TextBody renders the plain-text notification.
func TextBody(s *Submission, sourcePage, companyName string, at time.Time) string {
	kind := "contact form submission"
	if s.FormType() == "simple" {
		kind = "lead inquiry"
	}

	var b strings.Builder
	b.WriteString("Hi Team,\n\n")
	fmt.Fprintf(&b, "You have received a new %s from your website.\n\n", kind)
	for _, f := range LabeledFields(s) {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	if sourcePage != "" {
		fmt.Fprintf(&b, "\nSource: %s\n", sourcePage)
	}
	b.WriteString("\nQuick Actions:\n")
	fmt.Fprintf(&b, "- Reply to: %s\n", s.Email())
	if phone := s.Phone(); phone != "" {
		fmt.Fprintf(&b, "- Call: %s\n", phone)
	}
	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "Submitted on: %s\n", at.Format(TimestampLayout))
	b.WriteString(companyName)
	b.WriteByte('\n')
	return b.String()
}

// Compose builds the notification for a checked submission.
func Compose(s *Submission, cfg *ContactConfig, sourcePage string, at time.Time) Email {
	return Email{
		From:    cfg.From,
		To:      []string{cfg.RecipientAddress()},
		ReplyTo: s.Email(),
		Subject: Subject(s),
		Text:    TextBody(s, sourcePage, cfg.CompanyName, at),
	}
}
