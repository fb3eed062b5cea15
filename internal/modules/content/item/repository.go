package item

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/modules/markdown"
	"go.uber.org/zap"
)

// Repository loads markdown content files from a collection directory and
// resolves related items. Implements RelatedFinder.
type Repository struct {
	dir   string
	log   *zap.Logger
	items []*Item
}

// NewRepository scans dir for *.md files and builds the item set. Files with
// invalid metadata are skipped with a warning, not fatal.
func NewRepository(dir string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read collection dir %q: %w", dir, err)
	}

	repo := &Repository{dir: dir, log: log}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		it, err := LoadFile(path)
		if err != nil {
			log.Warn("skipping content file", zap.String("path", path), zap.Error(err))
			continue
		}
		it.Attach(RelationRepository, RelatedFinder(repo))
		it.Attach(RelationCollectionPath, dir)
		repo.items = append(repo.items, it)
	}

	sort.Slice(repo.items, func(i, j int) bool {
		return publishedTime(repo.items[i]).After(publishedTime(repo.items[j]))
	})
	return repo, nil
}

// publishedTime parses the normalized publication date for ordering. Offsets
// differ between items, so string comparison would misorder them.
func publishedTime(it *Item) time.Time {
	t, _ := time.Parse(time.RFC3339, it.Meta.DatePublished)
	return t
}

// LoadFile reads one content file into an Item, rendering its body.
func LoadFile(path string) (*Item, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file %q: %w", path, err)
	}

	meta, body, err := ParseFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("content file %q: %w", path, err)
	}

	md, err := NewMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("content file %q: %w", path, err)
	}

	return New(md, body, markdown.Render(body), path), nil
}

// All returns every loaded item, newest first.
func (r *Repository) All() []*Item {
	return r.items
}

// BySlug returns the item with the given slug, or nil.
func (r *Repository) BySlug(slug string) *Item {
	for _, it := range r.items {
		if it.Meta.Slug == slug {
			return it
		}
	}
	return nil
}

// FindRelated returns published items sharing tags and/or author with the
// given item, by criteria ("tags", "author"), excluding the item itself.
func (r *Repository) FindRelated(it *Item, criteria []string, limit int) []*Item {
	if limit <= 0 {
		limit = 5
	}

	byTags := false
	byAuthor := false
	for _, c := range criteria {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "tags", "tag":
			byTags = true
		case "author", "authors":
			byAuthor = true
		}
	}
	if !byTags && !byAuthor {
		byTags = true
		byAuthor = true
	}

	wantTags := tagNameSet(it)
	wantAuthor := it.AuthorName()

	related := make([]*Item, 0, limit)
	for _, candidate := range r.items {
		if candidate == it || candidate.Meta.Slug == it.Meta.Slug {
			continue
		}
		if !candidate.Meta.IsPublished() {
			continue
		}

		match := false
		if byTags && intersects(wantTags, tagNameSet(candidate)) {
			match = true
		}
		if !match && byAuthor && wantAuthor != "" && strings.EqualFold(candidate.AuthorName(), wantAuthor) {
			match = true
		}
		if !match {
			continue
		}

		related = append(related, candidate)
		if len(related) >= limit {
			break
		}
	}
	return related
}

func tagNameSet(it *Item) map[string]bool {
	set := map[string]bool{}
	for _, tag := range it.Meta.Tags {
		if name := strings.ToLower(displayName(tag)); name != "" {
			set[name] = true
		}
	}
	return set
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
