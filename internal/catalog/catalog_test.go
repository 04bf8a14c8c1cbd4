package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testItems() []MediaItem {
	return []MediaItem{
		{ID: "a1", Name: "Starboy Remix", URL: "https://example.com/a1.mp4", Type: TypeVideo, Categories: []Category{CategoryOfficial}, Format: "mp4"},
		{ID: "a2", Name: "Fresco", URL: "https://example.com/a2.mp3", Type: TypeAudio, Categories: []Category{CategoryCRO, CategoryLeaked}, Format: "mp3"},
		{ID: "a3", Name: "Level Up", URL: "https://example.com/a3.flac", Type: TypeAudio, Categories: []Category{CategoryLostMedia}, Format: "flac"},
		{ID: "a4", Name: "Kaiosama", URL: "https://example.com/a4.opus", Type: TypeAudio, Categories: []Category{CategoryLeaked}, Format: "opus"},
	}
}

func ids(items []MediaItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestFilterAllReturnsWholeCatalogInOrder(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	got := c.Filter(All, "", NewBrokenSet())

	require.Equal([]string{"a1", "a2", "a3", "a4"}, ids(got))
}

func TestFilterByCategory(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	broken := NewBrokenSet()

	sel, err := ParseSelector("Filtrado")
	require.NoError(err)
	require.Equal([]string{"a2", "a4"}, ids(c.Filter(sel, "", broken)))

	broken.Add("a4")
	require.Equal([]string{"a2"}, ids(c.Filter(sel, "", broken)))
}

func TestFilterByType(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	sel, err := ParseSelector("video")
	require.NoError(err)
	require.Equal([]string{"a1"}, ids(c.Filter(sel, "", nil)))
}

func TestFilterInfoIsAlwaysEmpty(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	sel, err := ParseSelector("info")
	require.NoError(err)

	got := c.Filter(sel, "", NewBrokenSet())
	require.NotNil(got)
	require.Empty(got)
}

func TestFilterQuery(t *testing.T) {
	require := require.New(t)

	c := New(testItems())

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a1", "a2", "a3", "a4"}},
		{"LEVEL", []string{"a3"}},
		{"opus", []string{"a4"}},
		{"mp", []string{"a1", "a2"}},
		{"nothing here", []string{}},
	}

	for _, tc := range tests {
		got := c.Filter(All, tc.query, nil)
		require.Equal(tc.want, ids(got), "query %q", tc.query)
	}
}

func TestMatchScenario(t *testing.T) {
	require := require.New(t)

	item := MediaItem{ID: "x", Name: "Test Song", Format: "mp3", Type: TypeAudio, Categories: []Category{CategoryLeaked}}
	sel := Selector{Kind: SelectCategory, Category: CategoryLeaked}

	require.True(Match(item, sel, "song"))
	require.False(Match(item, sel, "video"))
}

func TestBrokenItemsStayHidden(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	broken := NewBrokenSet()

	require.Len(c.Filter(All, "", broken), 4)

	require.True(broken.Add("a1"))
	require.False(broken.Add("a1"))

	for _, q := range []string{"", "starboy", "mp4"} {
		require.NotContains(ids(c.Filter(All, q, broken)), "a1")
	}
	require.Equal([]string{"a1"}, broken.IDs())
}

func TestFilterMemoizesIdenticalInputs(t *testing.T) {
	require := require.New(t)

	c := New(testItems())
	broken := NewBrokenSet()

	first := c.Filter(All, "e", broken)
	memo := c.memo
	second := c.Filter(All, "e", broken)
	require.Same(memo, c.memo)
	require.Equal(first, second)

	// Mutating a returned slice must not leak into the memo.
	second[0].Name = "changed"
	require.NotEqual("changed", c.Filter(All, "e", broken)[0].Name)

	broken.Add("a2")
	c.Filter(All, "e", broken)
	require.NotSame(memo, c.memo)
}

func TestParseSelector(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		input string
		want  Selector
	}{
		{"", All},
		{"all", All},
		{"ALL", All},
		{"info", Selector{Kind: SelectInfo}},
		{"audio", Selector{Kind: SelectType, Type: TypeAudio}},
		{"lost media", Selector{Kind: SelectCategory, Category: CategoryLostMedia}},
		{"Duki", Selector{Kind: SelectCategory, Category: CategoryDuki}},
	}

	for _, tc := range tests {
		got, err := ParseSelector(tc.input)
		require.NoError(err, "input %q", tc.input)
		require.Equal(tc.want, got, "input %q", tc.input)
	}

	_, err := ParseSelector("bogus")
	require.ErrorIs(err, ErrUnknownSelector)
}

func TestExpand(t *testing.T) {
	require := require.New(t)

	base := testItems()[:2]
	got := Expand(base, 5)

	require.Len(got, 5)
	require.Equal([]string{"a1", "a2", "vault-ref-0", "vault-ref-1", "vault-ref-2"}, ids(got))
	require.Equal("Starboy Remix (Mirror #1)", got[2].Name)
	require.Equal("Fresco (Mirror #2)", got[3].Name)
	require.Equal("Starboy Remix (Mirror #3)", got[4].Name)
	require.Equal([]Category{CategoryPlaylist, CategoryOptimized}, got[4].Categories)
	require.Equal(base[0].URL, got[4].URL)

	// base is left untouched
	require.Equal([]Category{CategoryOfficial}, base[0].Categories)
}

func TestExpandEdgeCases(t *testing.T) {
	require := require.New(t)

	require.Empty(Expand(nil, 10))
	require.Len(Expand(testItems(), 2), 4)
	require.Len(Expand(testItems(), 4), 4)
}

func TestExpandSkipsTakenIDs(t *testing.T) {
	require := require.New(t)

	base := []MediaItem{
		{ID: "vault-ref-0", Name: "A", URL: "https://a/a.mp3", Type: TypeAudio},
		{ID: "b", Name: "B", URL: "https://a/b.mp3", Type: TypeAudio},
	}
	got := Expand(base, 4)

	require.Equal([]string{"vault-ref-0", "b", "vault-ref-1", "vault-ref-2"}, ids(got))
	require.Equal("A (Mirror #1)", got[2].Name)
	require.Equal("B (Mirror #2)", got[3].Name)
}

func TestFilterResultIsDetached(t *testing.T) {
	require := require.New(t)

	c := New([]MediaItem{{
		ID: "a", Name: "Goteo", URL: "https://a/goteo.mp4",
		Mirrors:    []string{"https://b/goteo.mp4"},
		Type:       TypeVideo,
		Categories: []Category{CategoryOfficial},
	}})

	got := c.Filter(All, "", nil)
	got[0].Mirrors[0] = "changed"
	got[0].Categories[0] = CategoryFree

	item, ok := c.Get("a")
	require.True(ok)
	require.Equal("https://b/goteo.mp4", item.Mirrors[0])
	require.Equal(CategoryOfficial, item.Categories[0])

	// the memoized result is unaffected too
	again := c.Filter(All, "", nil)
	require.Equal("https://b/goteo.mp4", again[0].Mirrors[0])
}

func TestDefaultSeed(t *testing.T) {
	require := require.New(t)

	items, err := DefaultSeed()
	require.NoError(err)
	require.NotEmpty(items)

	withSubs := 0
	for _, item := range items {
		if item.HasSubtitles() {
			withSubs++
		}
	}
	require.Positive(withSubs)

	expanded := Expand(items, 239)
	require.Len(expanded, 239)
	seen := map[string]bool{}
	for _, item := range expanded {
		require.False(seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestLoadSeedValidation(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "- name: x\n  url: u\n  type: audio\n"},
		{"duplicate id", "- id: a\n  url: u\n  type: audio\n- id: a\n  url: v\n  type: audio\n"},
		{"missing url", "- id: a\n  type: audio\n"},
		{"bad type", "- id: a\n  url: u\n  type: podcast\n"},
		{"bad category", "- id: a\n  url: u\n  type: audio\n  category: [Nope]\n"},
		{"reserved id", "- id: vault-ref-0\n  url: u\n  type: audio\n"},
	}

	for _, tc := range tests {
		_, err := LoadSeed(strings.NewReader(tc.doc))
		require.ErrorIs(err, ErrInvalidSeed, tc.name)
	}

	items, err := LoadSeed(strings.NewReader(""))
	require.NoError(err)
	require.Empty(items)
}

func TestSources(t *testing.T) {
	require := require.New(t)

	item := MediaItem{URL: "p", Mirrors: []string{"m1", "m2"}}
	require.Equal([]string{"p", "m1", "m2"}, item.Sources())
	require.True(item.HasSource("m2"))
	require.False(item.HasSource("m3"))
}
