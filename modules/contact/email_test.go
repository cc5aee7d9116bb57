package contact

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, body string) *Submission {
	t.Helper()
	s, err := ParseSubmission([]byte(body))
	require.NoError(t, err)
	return s
}

func TestFormatFieldName(t *testing.T) {
	cases := map[string]string{
		"companyName":   "Company Name",
		"budget_range":  "Budget Range",
		"message":       "Message",
		"howDidYouHear": "How Did You Hear",
		"URL":           "U R L",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFieldName(in), in)
	}
}

func TestSourcePage(t *testing.T) {
	assert.Equal(t, "Home Page", SourcePage("https://digital-neighbour.com/", "Footer"))
	assert.Equal(t, "Home Page", SourcePage("https://digital-neighbour.com", ""))
	assert.Equal(t, "Contact Page", SourcePage("https://digital-neighbour.com/contact", ""))
	assert.Equal(t, "Seo Page", SourcePage("https://digital-neighbour.com/seo/local-seo/parnell", ""))
	assert.Equal(t, "Web Development Page", SourcePage("https://digital-neighbour.com/web-development?x=1", ""))
	assert.Equal(t, "Footer", SourcePage("", "Footer"))
	assert.Equal(t, "Contact Form", SourcePage("", ""))
	assert.Equal(t, "Contact Form", SourcePage("not a url", ""))
}

func TestSubmission_Rules(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"website":"example.com"}`, "Email is required"},
		{`{"email":""}`, "Email is required"},
		{`{"email":"a@b.co"}`, "Please provide website or phone number"},
		{`{"email":"a@b.co","firstName":"Ana"}`, "First name and last name are required"},
		{`{"email":"a@b.co","firstName":null,"lastName":"Smith"}`, "First name and last name are required"},
		{`{"email":"a@b.co","phone":"021"}`, ""},
		{`{"email":"a@b.co","firstName":"Ana","lastName":"Smith"}`, ""},
	}
	for _, tt := range tests {
		err := mustParse(t, tt.body).Check()
		if tt.want == "" {
			assert.NoError(t, err, tt.body)
			continue
		}
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tt.body)
		assert.Equal(t, tt.want, verr.Message)
	}

	_, err := ParseSubmission([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidBody)
	_, err = ParseSubmission([]byte(`{"email":`))
	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestSubmission_UserNameAndSubject(t *testing.T) {
	full := mustParse(t, `{"firstName":"Ana","lastName":"Smith","email":"ana@example.com"}`)
	assert.Equal(t, "Ana Smith", full.UserName())
	assert.Equal(t, "📧 New Contact Form Submission from Ana Smith", Subject(full))
	assert.Equal(t, "contact", full.FormType())

	lead := mustParse(t, `{"email":"jane@example.co.nz","website":"example.co.nz"}`)
	assert.Equal(t, "jane", lead.UserName())
	assert.Equal(t, "🎯 New Lead: example.co.nz - jane", Subject(lead))
	assert.Equal(t, "simple", lead.FormType())

	assert.Equal(t, "Smith", mustParse(t, `{"lastName":"Smith"}`).UserName())
	assert.Equal(t, "User", mustParse(t, `{}`).UserName())
}

func TestLabeledFields_Order(t *testing.T) {
	s := mustParse(t, `{
		"message": "Need help",
		"phone": "021 555 0101",
		"sourcePage": "SEO",
		"lastName": "Smith",
		"email": "ana@example.com",
		"firstName": "Ana",
		"companyName": "Acme",
		"empty": "",
		"nothing": null,
		"employees": 12,
		"newsletter": false
	}`)

	want := []LabeledField{
		{"Full Name", "Ana Smith"},
		{"Email Address", "ana@example.com"},
		{"Phone Number", "021 555 0101"},
		{"Message", "Need help"},
		{"Company Name", "Acme"},
		{"Employees", "12"},
		{"Newsletter", "false"},
	}
	if diff := cmp.Diff(want, LabeledFields(s)); diff != "" {
		t.Errorf("LabeledFields mismatch (-want +got):\n%s", diff)
	}
}

func TestTextBody(t *testing.T) {
	s := mustParse(t, `{"email":"jane@example.co.nz","website":"example.co.nz","phone":"021 555 0101","budget_range":"5k-10k","sourcePage":"SEO"}`)
	at := time.Date(2025, 3, 4, 14, 30, 0, 0, time.UTC)

	want := `Hi Team,

You have received a new lead inquiry from your website.

Email Address: jane@example.co.nz
Website: example.co.nz
Phone Number: 021 555 0101
Budget Range: 5k-10k

Source: SEO

Quick Actions:
- Reply to: jane@example.co.nz
- Call: 021 555 0101

---
Submitted on: Tuesday, March 4, 2025 at 02:30 PM UTC
Digital Neighbour
`
	if diff := cmp.Diff(want, TextBody(s, "SEO", "Digital Neighbour", at)); diff != "" {
		t.Errorf("TextBody mismatch (-want +got):\n%s", diff)
	}

	cfg := &ContactConfig{From: "Contact Form <onboarding@resend.dev>", FallbackRecipient: "team@example.com", CompanyName: "Digital Neighbour"}
	email := Compose(s, cfg, "SEO", at)
	assert.Equal(t, []string{"team@example.com"}, email.To)
	assert.Equal(t, "jane@example.co.nz", email.ReplyTo)
	assert.Equal(t, "Contact Form <onboarding@resend.dev>", email.From)
}
