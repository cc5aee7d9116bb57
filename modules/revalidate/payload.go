package revalidate

import (
	"github.com/tidwall/gjson"
)

// Document identifies the CMS document a webhook reports.
type Document struct {
	Type string
	Slug string
}

// ParsePayload extracts the document type and slug from either webhook
// shape the CMS sends: the document itself, or a mutations list of which
// only the first entry is considered.
func ParsePayload(body []byte) (Document, error) {
	if !gjson.ValidBytes(body) {
		return Document{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)

	if t := root.Get("_type").String(); t != "" {
		return Document{Type: t, Slug: slugOf(root.Get("slug"))}, nil
	}

	mutation := root.Get("mutations.0")
	for _, op := range []string{"create", "update"} {
		if doc := mutation.Get(op); doc.Exists() {
			return checked(Document{Type: doc.Get("_type").String(), Slug: doc.Get("slug.current").String()})
		}
	}
	if doc := mutation.Get("delete"); doc.Exists() {
		return checked(Document{Type: doc.Get("_type").String()})
	}
	return Document{}, ErrMissingDocumentType
}

// slugOf accepts both {"current": "..."} and a bare string.
func slugOf(v gjson.Result) string {
	if current := v.Get("current"); current.Exists() {
		return current.String()
	}
	if v.Type == gjson.String {
		return v.String()
	}
	return ""
}

func checked(doc Document) (Document, error) {
	if doc.Type == "" {
		return Document{}, ErrMissingDocumentType
	}
	return doc, nil
}
