package item

import (
	"os"
	"path/filepath"
	"testing"
)

func writeContent(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()

	writeContent(t, dir, "go-intro.md", `---
slug: go-intro
title: Intro to Go
date: 2023-01-10
tags: [go, programming]
author: brian
---
Body one.
`)
	writeContent(t, dir, "go-advanced.md", `---
slug: go-advanced
title: Advanced Go
date: 2023-02-15
tags: [go]
author: brian
---
Body two.
`)
	writeContent(t, dir, "cooking.md", `---
slug: cooking
title: Weeknight Cooking
date: 2023-03-01
tags: [food]
author: alex
---
Body three.
`)
	writeContent(t, dir, "draft-post.md", `---
slug: draft-post
title: Unfinished
status: draft
tags: [go]
author: brian
---
Body four.
`)
	writeContent(t, dir, "broken.md", "---\ntitle: No Slug\n---\nBody.\n")
	writeContent(t, dir, "ignored.txt", "not markdown")

	repo, err := NewRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func TestRepositoryLoadsValidFiles(t *testing.T) {
	repo := newTestRepository(t)

	if got := len(repo.All()); got != 4 {
		t.Fatalf("loaded %d items, want 4 (broken and non-md skipped)", got)
	}
	if repo.BySlug("go-intro") == nil {
		t.Errorf("BySlug(go-intro) = nil")
	}
	if repo.BySlug("missing") != nil {
		t.Errorf("BySlug(missing) should be nil")
	}
}

func TestRepositorySortsChronologicallyAcrossOffsets(t *testing.T) {
	dir := t.TempDir()

	// Lexically "2024-01-02T00:00:00+09:00" sorts after the UTC date, but
	// it is the earlier instant (2024-01-01 15:00 UTC).
	writeContent(t, dir, "tokyo.md", `---
slug: tokyo
title: Tokyo Post
date: 2024-01-02T00:00:00+09:00
---
Body.
`)
	writeContent(t, dir, "utc.md", `---
slug: utc
title: UTC Post
date: 2024-01-01T20:00:00Z
---
Body.
`)

	repo, err := NewRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	items := repo.All()
	if len(items) != 2 {
		t.Fatalf("loaded %d items, want 2", len(items))
	}
	if items[0].Meta.Slug != "utc" {
		t.Errorf("newest first = %q, want utc (later instant despite lexically smaller date)", items[0].Meta.Slug)
	}
}

func TestRepositoryAttachesCollaborators(t *testing.T) {
	repo := newTestRepository(t)

	it := repo.BySlug("go-intro")
	if _, ok := it.Relation(RelationRepository); !ok {
		t.Errorf("repository relation not attached")
	}
	if _, ok := it.Relation(RelationCollectionPath); !ok {
		t.Errorf("collection_path relation not attached")
	}
}

func TestRepositoryRendersBody(t *testing.T) {
	repo := newTestRepository(t)

	it := repo.BySlug("go-intro")
	if it.RawBody == "" || it.Body == "" {
		t.Errorf("bodies not populated: raw=%q rendered=%q", it.RawBody, it.Body)
	}
}

func TestFindRelatedByTags(t *testing.T) {
	repo := newTestRepository(t)
	it := repo.BySlug("go-intro")

	related := repo.FindRelated(it, []string{"tags"}, 10)
	slugs := map[string]bool{}
	for _, r := range related {
		slugs[r.Meta.Slug] = true
	}
	if !slugs["go-advanced"] {
		t.Errorf("go-advanced should match by shared tag: %v", slugs)
	}
	if slugs["cooking"] {
		t.Errorf("cooking shares no tags and must not match")
	}
	if slugs["draft-post"] {
		t.Errorf("draft items must be excluded")
	}
	if slugs["go-intro"] {
		t.Errorf("item must not relate to itself")
	}
}

func TestFindRelatedByAuthor(t *testing.T) {
	repo := newTestRepository(t)
	it := repo.BySlug("cooking")

	// No shared tags, but authored items still match on the author
	// criterion.
	related := repo.FindRelated(it, []string{"author"}, 10)
	if len(related) != 0 {
		t.Errorf("cooking's author has no other published items: %v", related)
	}

	intro := repo.BySlug("go-intro")
	related = repo.FindRelated(intro, []string{"author"}, 10)
	found := false
	for _, r := range related {
		if r.Meta.Slug == "go-advanced" {
			found = true
		}
	}
	if !found {
		t.Errorf("go-advanced shares the author and should match")
	}
}

func TestFindRelatedHonorsLimit(t *testing.T) {
	repo := newTestRepository(t)
	it := repo.BySlug("go-intro")

	related := repo.FindRelated(it, nil, 1)
	if len(related) != 1 {
		t.Errorf("limit 1 returned %d items", len(related))
	}
}

func TestRelatedItemsThroughAttachedRepository(t *testing.T) {
	repo := newTestRepository(t)
	it := repo.BySlug("go-intro")

	related := it.RelatedItems([]string{"tags"}, 5)
	if len(related) == 0 {
		t.Fatalf("expected related items via attached repository")
	}
}
