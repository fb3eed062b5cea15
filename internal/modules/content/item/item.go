package item

// Relation names attached at runtime by the render layer.
const (
	RelationURL            = "url"
	RelationRepository     = "repository"
	RelationCollectionPath = "collection_path"
	RelationTransform      = "transform"
	RelationRelated        = "related"
)

// RelatedFinder locates items sharing tags and/or author with a given item.
type RelatedFinder interface {
	FindRelated(it *Item, criteria []string, limit int) []*Item
}

// Transform maps a related-item candidate into its final form, typically
// attaching a resolved URL and collection context.
type Transform func(*Item) *Item

// Item wraps one Metadata plus raw and rendered body content, and a bag of
// runtime-attached relations for the template layer. Relations are never
// part of the source file; they are populated after construction via Attach.
type Item struct {
	Meta     *Metadata
	RawBody  string
	Body     string
	FilePath string

	relations map[string]interface{}
}

// New creates an Item over metadata and content.
func New(meta *Metadata, rawBody, body, filePath string) *Item {
	return &Item{
		Meta:      meta,
		RawBody:   rawBody,
		Body:      body,
		FilePath:  filePath,
		relations: map[string]interface{}{},
	}
}

// Attach sets a runtime relation on the item.
func (it *Item) Attach(name string, value interface{}) {
	if it.relations == nil {
		it.relations = map[string]interface{}{}
	}
	it.relations[name] = value
}

// Relation looks up a runtime relation by name.
func (it *Item) Relation(name string) (interface{}, bool) {
	v, ok := it.relations[name]
	return v, ok
}

// Tag returns the first tag, or nil when the item has none.
func (it *Item) Tag() interface{} {
	if len(it.Meta.Tags) == 0 {
		return nil
	}
	return it.Meta.Tags[0]
}

// TagName returns the display name of the first tag. Enriched tags carry a
// "name" entry; plain tags are their own name.
func (it *Item) TagName() string {
	return displayName(it.Tag())
}

// Author returns the first entry of the authors list, falling back to the
// free-form author field.
func (it *Item) Author() interface{} {
	if len(it.Meta.Authors) > 0 {
		return it.Meta.Authors[0]
	}
	return it.Meta.Author
}

// AuthorName returns the display name of the item author.
func (it *Item) AuthorName() string {
	return displayName(it.Author())
}

// Image returns a fixed six-key descriptor with empty-string defaults for
// missing sub-fields, or nil when the item has no image data.
func (it *Item) Image() map[string]interface{} {
	if it.Meta.Image == nil {
		return nil
	}

	img := map[string]interface{}{
		"src":    "",
		"type":   "",
		"title":  "",
		"width":  "",
		"height": "",
		"alt":    "",
	}
	for key := range img {
		if v, ok := it.Meta.Image[key]; ok {
			img[key] = v
		}
	}
	return img
}

// URL prefers the runtime-attached url relation over the legacy custom
// metadata fallback.
func (it *Item) URL() string {
	if v, ok := it.relations[RelationURL]; ok {
		if s := asString(v); s != "" {
			return s
		}
	}
	if v, ok := it.Meta.CustomField("url"); ok {
		return asString(v)
	}
	return ""
}

// RelatedItems finds items sharing tags and/or author with this item via the
// attached repository collaborator. Missing collaborators make this a silent
// no-op returning an empty slice.
func (it *Item) RelatedItems(criteria []string, limit int) []*Item {
	repo, ok := it.relations[RelationRepository].(RelatedFinder)
	if !ok || repo == nil {
		return []*Item{}
	}
	collectionPath := asString(it.relations[RelationCollectionPath])
	if collectionPath == "" {
		return []*Item{}
	}

	candidates := repo.FindRelated(it, criteria, limit)

	transform, _ := it.relations[RelationTransform].(Transform)
	if transform == nil {
		return candidates
	}

	out := make([]*Item, 0, len(candidates))
	for _, candidate := range candidates {
		if mapped := transform(candidate); mapped != nil {
			out = append(out, mapped)
		}
	}
	return out
}

// ToArray flattens the item into a template-ready mapping: the fixed
// standard keys first, then the custom fields merged at top level. Custom
// fields never override a standard key or the reserved filepath key.
func (it *Item) ToArray() map[string]interface{} {
	out := map[string]interface{}{
		"slug":            it.Meta.Slug,
		"url":             it.URL(),
		"title":           it.Meta.Title,
		"date":            it.Meta.Date,
		"date_published":  it.Meta.DatePublished,
		"date_modified":   it.Meta.DateModified,
		"author":          it.Meta.Author,
		"author_name":     it.AuthorName(),
		"authors":         it.Meta.Authors,
		"tag":             it.Tag(),
		"tag_name":        it.TagName(),
		"tags":            it.Meta.Tags,
		"featured":        it.Meta.Featured,
		"status":          it.Meta.Status,
		"categories":      it.Meta.Categories,
		"image":           it.Image(),
		"excerpt":         it.Meta.Excerpt,
		"body":            it.Body,
		"raw_body":        it.RawBody,
		"meta":            it.Meta.Custom,
		"relations":       it.relationNames(),
		"filepath":        it.FilePath,
		"collection_path": asString(it.relations[RelationCollectionPath]),
	}

	// A nested "custom" sub-mapping inside the custom bag supplies the
	// flattened fields instead of the outer container.
	custom := it.Meta.Custom
	if nested, ok := custom["custom"].(map[string]interface{}); ok {
		custom = nested
	}
	for key, value := range custom {
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = value
	}

	return out
}

func (it *Item) relationNames() []string {
	names := make([]string, 0, len(it.relations))
	for name := range it.relations {
		names = append(names, name)
	}
	return names
}

// displayName resolves the human-readable name from either a plain value or
// an enriched mapping with a "name" entry.
func displayName(v interface{}) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok {
		return asString(m["name"])
	}
	return asString(v)
}
