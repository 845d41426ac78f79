package render

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"muckamuck/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRenderer(t *testing.T, store *memStore) *Renderer {
	t.Helper()
	r := NewRenderer(
		Config{PageSize: 2, FeedItemLimit: 3},
		Layout{Root: t.TempDir()},
		memSiteRepo{store}, memPostRepo{store}, memUserRepo{store},
		NewHandlebars(),
		zap.NewNop(),
	)
	r.Now = func() time.Time { return fixedNow }
	return r
}

func seedSite(store *memStore) *domain.Site {
	site := store.addSite(domain.Site{
		ID: "s1", Domain: "blog.example.com", OwnerID: "u1",
		Title: "My Blog", Description: "Words", Language: "en-us",
		ThemeTemplate: DefaultTemplate, ThemeCSS: DefaultCSS, ThemeJS: DefaultJS,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	store.addUser(domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice", PublicEmail: "alice@blog"})
	store.addMember("s1", "u1")
	return site
}

func seedPost(store *memStore, id, slug string, day int, tags ...string) *domain.Post {
	p := domain.Post{
		ID: id, SiteID: "s1", Slug: slug, AuthorID: "u1",
		Title: strings.ReplaceAll(slug, "-", " "), Body: "body of " + slug,
		Description: "about " + slug,
		PublishedAt: time.Date(2026, 2, day, 8, 0, 0, 0, time.UTC),
	}
	p.SetTags(tags)
	return store.addPost(p)
}

// treeSnapshot maps relative path -> content hash for every regular file.
func treeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = fmt.Sprintf("%x", sha256.Sum256(b))
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestGeneratePostWritesArtifact(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	seedPost(store, "p1", "hello-world", 1, "go")
	r := newTestRenderer(t, store)

	require.NoError(t, r.GeneratePost("p1"))

	b, err := os.ReadFile(r.Layout().PostPath("s1", "hello-world"))
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "Hello World")
	assert.Contains(t, s, "body of hello-world")
	assert.Contains(t, s, "Alice")
	assert.Contains(t, s, `/tag/go/`)
}

func TestGeneratePostDraftRemovesArtifact(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	p := seedPost(store, "p1", "wip", 1)
	r := newTestRenderer(t, store)

	require.NoError(t, r.GeneratePost("p1"))
	path := r.Layout().PostPath("s1", "wip")
	_, err := os.Stat(path)
	require.NoError(t, err)

	p.Draft = true
	require.NoError(t, memPostRepo{store}.Update(p))
	require.NoError(t, r.GeneratePost("p1"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGeneratePostUnknownID(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	r := newTestRenderer(t, store)
	assert.ErrorIs(t, r.GeneratePost("nope"), domain.ErrNotFound)
}

func TestGenerateIndexEmptySite(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateIndex("s1"))
	b, err := os.ReadFile(r.Layout().IndexPath("s1"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "My Blog")
}

func TestPaginationPageSetWithIndexAlias(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	for i := 1; i <= 5; i++ {
		seedPost(store, fmt.Sprintf("p%d", i), fmt.Sprintf("post-%d", i), i)
	}
	r := newTestRenderer(t, store)

	require.NoError(t, r.GeneratePagination("s1"))

	dir := r.Layout().PaginateDir("s1")
	for _, name := range []string{"1.html", "2.html", "3.html", "index.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(dir, "4.html"))
	assert.True(t, os.IsNotExist(err))

	// index.html is a byte-for-byte alias of page 1
	one, err := os.ReadFile(filepath.Join(dir, "1.html"))
	require.NoError(t, err)
	idx, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, one, idx)

	// newest post comes first
	assert.Contains(t, string(one), "post-5.html")
}

func TestPageSetShrinksWithoutStalePages(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	for i := 1; i <= 5; i++ {
		seedPost(store, fmt.Sprintf("p%d", i), fmt.Sprintf("post-%d", i), i)
	}
	r := newTestRenderer(t, store)
	require.NoError(t, r.GenerateArchive("s1"))

	for i := 2; i <= 5; i++ {
		require.NoError(t, memPostRepo{store}.Delete(fmt.Sprintf("p%d", i)))
	}
	require.NoError(t, r.GenerateArchive("s1"))

	dir := r.Layout().ArchiveDir("s1")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"1.html", "index.html"}, names)
}

func TestGenerateAllTagPagesRemovesDeadTags(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	p1 := seedPost(store, "p1", "a", 1, "go", "web")
	seedPost(store, "p2", "b", 2, "go")
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateAllTagPages("s1"))
	_, err := os.Stat(filepath.Join(r.Layout().TagDir("s1", "go"), "1.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(r.Layout().TagDir("s1", "web"), "1.html"))
	require.NoError(t, err)

	// retag the only "web" post and rebuild: the web page set must vanish
	p1.SetTags([]string{"go"})
	require.NoError(t, memPostRepo{store}.Update(p1))
	require.NoError(t, r.GenerateAllTagPages("s1"))

	_, err = os.Stat(r.Layout().TagDir("s1", "web"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(r.Layout().TagDir("s1", "go"), "1.html"))
	assert.NoError(t, err)
}

func TestTagPagesListOnlyTaggedPosts(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	seedPost(store, "p1", "go-post", 1, "go")
	seedPost(store, "p2", "web-post", 2, "web")
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateTagPages("s1", "go"))
	b, err := os.ReadFile(filepath.Join(r.Layout().TagDir("s1", "go"), "1.html"))
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "Posts Tagged With go")
	assert.Contains(t, s, "go-post.html")
	assert.NotContains(t, s, "web-post.html")
}

func TestGenerateUserPages(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	store.addUser(domain.User{ID: "u2", Email: "bob@example.com", Name: "Bob"})
	store.addMember("s1", "u2")
	seedPost(store, "p1", "alices-post", 1)
	p2 := seedPost(store, "p2", "bobs-post", 2)
	p2.AuthorID = "u2"
	require.NoError(t, memPostRepo{store}.Update(p2))
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateAllUserPages("s1"))

	b, err := os.ReadFile(filepath.Join(r.Layout().UserDir("s1", "u2"), "1.html"))
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "Posts By Bob")
	assert.Contains(t, s, "bobs-post.html")
	assert.NotContains(t, s, "alices-post.html")
}

func TestGenerateRSSHonorsItemLimit(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	for i := 1; i <= 5; i++ {
		seedPost(store, fmt.Sprintf("p%d", i), fmt.Sprintf("post-%d", i), i)
	}
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateRSS("s1"))
	b, err := os.ReadFile(r.Layout().RSSPath("s1"))
	require.NoError(t, err)
	s := string(b)
	assert.Equal(t, 3, strings.Count(s, "<item>"))
	// the three newest
	assert.Contains(t, s, "post-5.html")
	assert.Contains(t, s, "post-3.html")
	assert.NotContains(t, s, "post-2.html")
}

func TestGenerateFeedsWritesAllThree(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	seedPost(store, "p1", "only", 1)
	r := newTestRenderer(t, store)

	require.NoError(t, r.GenerateFeeds("s1"))
	for _, path := range []string{
		r.Layout().RSSPath("s1"),
		r.Layout().SitemapPath("s1"),
		r.Layout().RobotsPath("s1"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestRegenerationIsIdempotent(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	for i := 1; i <= 5; i++ {
		seedPost(store, fmt.Sprintf("p%d", i), fmt.Sprintf("post-%d", i), i, "go")
	}
	r := newTestRenderer(t, store)

	regen := func() {
		require.NoError(t, r.InitSiteTree("s1"))
		require.NoError(t, r.WriteThemeAssets("s1"))
		require.NoError(t, r.WriteSiteJSON("s1"))
		require.NoError(t, r.GenerateIndex("s1"))
		require.NoError(t, r.GeneratePagination("s1"))
		require.NoError(t, r.GenerateArchive("s1"))
		require.NoError(t, r.GenerateAllTagPages("s1"))
		require.NoError(t, r.GenerateAllUserPages("s1"))
		require.NoError(t, r.GenerateFeeds("s1"))
		for i := 1; i <= 5; i++ {
			require.NoError(t, r.GeneratePost(fmt.Sprintf("p%d", i)))
		}
	}

	regen()
	first := treeSnapshot(t, r.Layout().Root)
	regen()
	second := treeSnapshot(t, r.Layout().Root)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDomainAliasLifecycle(t *testing.T) {
	store := newMemStore()
	site := seedSite(store)
	seedPost(store, "p1", "hello", 1)
	r := newTestRenderer(t, store)

	require.NoError(t, r.InitSiteTree("s1"))
	require.NoError(t, r.GenerateIndex("s1"))
	require.NoError(t, r.BindDomainAlias("s1"))

	// the alias serves the same files as the id tree
	b, err := os.ReadFile(filepath.Join(r.Layout().DomainAlias(site.Domain), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "My Blog")

	r.UnbindDomainAlias(site.Domain)
	_, err = os.Lstat(r.Layout().DomainAlias(site.Domain))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, r.TeardownSiteTree("s1", site.Domain))
	_, err = os.Stat(r.Layout().SiteDir("s1"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteSiteJSON(t *testing.T) {
	store := newMemStore()
	seedSite(store)
	r := newTestRenderer(t, store)

	require.NoError(t, r.WriteSiteJSON("s1"))
	b, err := os.ReadFile(r.Layout().SiteJSONPath("s1"))
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `"domain": "blog.example.com"`)
	assert.Contains(t, s, `"title": "My Blog"`)
}

func TestTemplateErrorLeavesNoPartialArtifact(t *testing.T) {
	store := newMemStore()
	site := seedSite(store)
	site.ThemeTemplate = "{{#each posts}}broken"
	require.NoError(t, memSiteRepo{store}.Update(site))
	seedPost(store, "p1", "hello", 1)
	r := newTestRenderer(t, store)

	err := r.GenerateIndex("s1")
	require.Error(t, err)
	_, statErr := os.Stat(r.Layout().IndexPath("s1"))
	assert.True(t, os.IsNotExist(statErr))
}
