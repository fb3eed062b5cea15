package item

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

var (
	ErrMissingSlug  = errors.New("item metadata requires a non-empty slug")
	ErrMissingTitle = errors.New("item metadata requires a non-empty title")
)

// standardFields are the keys consumed by Metadata itself; anything else in
// the source mapping is treated as a custom field.
var standardFields = map[string]bool{
	"slug":           true,
	"title":          true,
	"date":           true,
	"date_published": true,
	"date_modified":  true,
	"author":         true,
	"authors":        true,
	"featured":       true,
	"status":         true,
	"tags":           true,
	"categories":     true,
	"image":          true,
	"excerpt":        true,
	"custom":         true,
}

// Metadata is the strictly-shaped view over a loosely-typed frontmatter
// mapping. Date fields always hold a valid RFC3339 string.
type Metadata struct {
	Slug          string
	Title         string
	Date          string
	DatePublished string
	DateModified  string
	Author        interface{} // scalar, mapping, or nil; passed through as-is
	Authors       []interface{}
	Featured      bool
	Status        string
	Tags          []interface{}
	Categories    []interface{}
	Image         map[string]interface{} // nil when absent
	Excerpt       string
	Custom        map[string]interface{}
}

// NewMetadata builds Metadata from a frontmatter-style mapping. Slug and
// title are mandatory; every other field is normalized with a usable
// fallback.
func NewMetadata(data map[string]interface{}) (*Metadata, error) {
	if data == nil {
		data = map[string]interface{}{}
	}

	slug := strings.TrimSpace(asString(data["slug"]))
	if slug == "" {
		return nil, ErrMissingSlug
	}
	title := strings.TrimSpace(asString(data["title"]))
	if title == "" {
		return nil, ErrMissingTitle
	}

	m := &Metadata{
		Slug:       slug,
		Title:      title,
		Author:     data["author"],
		Authors:    asSlice(data["authors"]),
		Featured:   asBool(data["featured"]),
		Status:     StatusPublished,
		Tags:       asSlice(data["tags"]),
		Categories: asSlice(data["categories"]),
		Image:      normalizeImage(data["image"]),
		Excerpt:    asString(data["excerpt"]),
		Custom:     extractCustom(data),
	}

	if status := strings.TrimSpace(asString(data["status"])); status != "" {
		m.Status = status
	}

	now := time.Now()
	m.Date = normalizeDate(data["date"], now.Format(time.RFC3339))
	// Published/modified fall back to the creation date, not to "now".
	m.DatePublished = normalizeDate(data["date_published"], m.Date)
	m.DateModified = normalizeDate(data["date_modified"], m.Date)

	return m, nil
}

// IsPublished reports whether status is exactly "published".
func (m *Metadata) IsPublished() bool { return m.Status == StatusPublished }

// IsDraft reports whether status is exactly "draft".
func (m *Metadata) IsDraft() bool { return m.Status == StatusDraft }

// CustomField looks up a custom field by name.
func (m *Metadata) CustomField(name string) (interface{}, bool) {
	v, ok := m.Custom[name]
	return v, ok
}

// extractCustom resolves the custom-field bag: a nested "custom" mapping is
// used verbatim when present, otherwise every non-standard key qualifies.
// A custom field literally named "custom" is not expressible; the key is
// reserved for the override container.
func extractCustom(data map[string]interface{}) map[string]interface{} {
	if nested, ok := data["custom"].(map[string]interface{}); ok {
		return nested
	}

	custom := map[string]interface{}{}
	for key, value := range data {
		if standardFields[key] {
			continue
		}
		custom[key] = value
	}
	return custom
}

// normalizeImage accepts either a source-string shorthand or a descriptor
// mapping. Anything else counts as no image.
func normalizeImage(v interface{}) map[string]interface{} {
	switch img := v.(type) {
	case string:
		if strings.TrimSpace(img) == "" {
			return nil
		}
		return map[string]interface{}{"src": img}
	case map[string]interface{}:
		return img
	default:
		return nil
	}
}

// normalizeDate produces an RFC3339 string from a raw date value, resolving
// unparseable or absent input to the fallback.
func normalizeDate(v interface{}, fallback string) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format(time.RFC3339)
	case string:
		if t := parseTime(d); !t.IsZero() {
			return t.Format(time.RFC3339)
		}
	}
	return fallback
}

// parseTime attempts several common date/time layouts.
func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return s
	case []string:
		out := make([]interface{}, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return []interface{}{v}
	}
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		lower := strings.ToLower(strings.TrimSpace(b))
		return lower == "true" || lower == "1" || lower == "yes"
	case int:
		return b != 0
	case float64:
		return b != 0
	default:
		return false
	}
}
