package contact

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Field is one submitted key in body order.
type Field struct {
	Key   string
	Value gjson.Result
}

// Submission is a parsed form body. Keys keep the order they were sent in.
type Submission struct {
	fields []Field
	index  map[string]int
}

// ParseSubmission reads a JSON object body.
func ParseSubmission(body []byte) (*Submission, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidBody
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrInvalidBody
	}

	s := &Submission{index: map[string]int{}}
	root.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, dup := s.index[k]; dup {
			s.fields[i].Value = value
			return true
		}
		s.index[k] = len(s.fields)
		s.fields = append(s.fields, Field{Key: k, Value: value})
		return true
	})
	return s, nil
}

// Has reports whether key was sent, even as null.
func (s *Submission) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Get returns the value of key as display text; missing, null, false and
// empty values are "".
func (s *Submission) Get(key string) string {
	i, ok := s.index[key]
	if !ok {
		return ""
	}
	return truthy(s.fields[i].Value)
}

func (s *Submission) Fields() []Field {
	return s.fields
}

func (s *Submission) Email() string     { return strings.TrimSpace(s.Get("email")) }
func (s *Submission) FirstName() string { return s.Get("firstName") }
func (s *Submission) LastName() string  { return s.Get("lastName") }
func (s *Submission) Website() string   { return s.Get("website") }
func (s *Submission) Phone() string     { return s.Get("phone") }

// IsSimple reports whether this is the short lead form, which has no name
// fields at all.
func (s *Submission) IsSimple() bool {
	return !s.Has("firstName") && !s.Has("lastName")
}

// Check applies the form rules in the order the visitor sees them.
func (s *Submission) Check() error {
	if s.Email() == "" {
		return &ValidationError{Message: "Email is required"}
	}
	if s.IsSimple() {
		if s.Website() == "" && s.Phone() == "" {
			return &ValidationError{Message: "Please provide website or phone number"}
		}
		return nil
	}
	if s.FirstName() == "" || s.LastName() == "" {
		return &ValidationError{Message: "First name and last name are required"}
	}
	return nil
}

// FormType is "simple" for submissions with a website, else "contact".
func (s *Submission) FormType() string {
	if s.Website() != "" {
		return "simple"
	}
	return "contact"
}

// UserName picks the best name to address the sender by.
func (s *Submission) UserName() string {
	first, last := s.FirstName(), s.LastName()
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	if local, _, _ := strings.Cut(s.Email(), "@"); local != "" {
		return local
	}
	return "User"
}

func truthy(v gjson.Result) string {
	switch v.Type {
	case gjson.Null, gjson.False:
		return ""
	case gjson.String:
		return v.Str
	case gjson.JSON:
		if v.IsArray() {
			items := v.Array()
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = item.String()
			}
			return strings.Join(parts, ",")
		}
		return v.Raw
	default:
		return v.String()
	}
}
