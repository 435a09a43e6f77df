package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/minios-linux/tskit/tsfile"
)

const smplayerJA = "../testdata/smplayer_ja.ts"

func loadSample(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := Load(smplayerJA, opts...)
	require.NoError(t, err)
	return c
}

func TestLookupEndToEnd(t *testing.T) {
	c := loadSample(t)

	assert.Equal(t, language.Japanese, c.Language())
	assert.Equal(t, []string{"About", "BaseGui", "Languages", "PrefGeneral"}, c.Contexts())

	got, ok := c.Lookup("Languages", "Japanese", "")
	require.True(t, ok)
	assert.Equal(t, "日本語", got)

	got, ok = c.Lookup("About", "Version: %1", "")
	require.True(t, ok)
	assert.Equal(t, "バージョン: %1", got)

	_, ok = c.Lookup("Languages", "Klingon", "")
	assert.False(t, ok)
	_, ok = c.Lookup("About", "Japanese", "")
	assert.False(t, ok, "lookups are scoped by context")
}

func TestLookupEveryFinishedMessage(t *testing.T) {
	f, err := tsfile.ParseFile(smplayerJA)
	require.NoError(t, err)
	c := New(f)

	checked := 0
	for _, ctx := range f.Contexts {
		for _, m := range ctx.Messages {
			got, ok := c.Lookup(ctx.Name, m.Source, m.Comment)
			switch {
			case !m.IsActive():
				continue
			case !m.IsTranslated():
				assert.False(t, ok, "unfinished %q must not resolve", m.Source)
			case m.Numerus:
				require.True(t, ok, m.Source)
				assert.Equal(t, m.NumerusForms[0], got)
				checked++
			default:
				require.True(t, ok, m.Source)
				assert.Equal(t, m.Translation, got)
				checked++
			}
		}
	}
	assert.Equal(t, 11, checked)
	assert.Equal(t, 11, c.Len())
}

func TestObsoleteExcludedFromLookup(t *testing.T) {
	c := loadSample(t)

	for _, k := range []tsfile.Key{
		{Context: "About", Source: "Visit our web for updates:"},
		{Context: "BaseGui", Source: "&Toolbars"},
		{Context: "PrefGeneral", Source: "Toolbars"},
	} {
		_, ok := c.Lookup(k.Context, k.Source, k.Comment)
		assert.False(t, ok, "obsolete %q must not resolve", k.Source)
		assert.Equal(t, k.Source, c.Translate(k.Context, k.Source, k.Comment))
	}
}

func TestUnfinishedFallsBackToSource(t *testing.T) {
	c := loadSample(t)

	_, ok := c.Lookup("BaseGui", `Playlist "%1" saved`, "")
	assert.False(t, ok, "unfinished text is not shown")
	assert.Equal(t, "Show &tags", c.Translate("BaseGui", "Show &tags", ""))
}

func TestDuplicateKeyFirstFinishedWins(t *testing.T) {
	f := tsfile.NewFile("ja")
	f.AddContext("BaseGui").Messages = []*tsfile.Message{
		{Source: "a", Translation: "draft", Type: tsfile.TypeUnfinished},
		{Source: "a", Translation: "first"},
		{Source: "a", Translation: "second"},
		{Source: "b", Translation: "gone", Type: tsfile.TypeObsolete},
		{Source: "b", Translation: "kept"},
	}

	var buf bytes.Buffer
	c := New(f, WithLogger(zerolog.New(&buf)))

	got, ok := c.Lookup("BaseGui", "a", "")
	require.True(t, ok)
	assert.Equal(t, "first", got)

	got, ok = c.Lookup("BaseGui", "b", "")
	require.True(t, ok)
	assert.Equal(t, "kept", got)

	assert.Equal(t, 1, strings.Count(buf.String(), "Duplicate message"))
}

func TestDisambiguationKeepsBothEntries(t *testing.T) {
	c := loadSample(t)

	cc, ok := c.Lookup("BaseGui", "&Off", "closed captions menu")
	require.True(t, ok)
	assert.Equal(t, "オフ(&O)", cc)

	dn, ok := c.Lookup("BaseGui", "&Off", "denoise menu")
	require.True(t, ok)
	assert.Equal(t, "オフ(&O)", dn)

	_, ok = c.Lookup("BaseGui", "&Off", "")
	assert.False(t, ok, "exact lookup requires the comment")
	_, ok = c.Lookup("BaseGui", "&Off", "audio menu")
	assert.False(t, ok)

	assert.Equal(t, "&Off", c.Translate("BaseGui", "&Off", "audio menu"))
}

func TestTranslateFallsBackToEmptyComment(t *testing.T) {
	c := loadSample(t)
	assert.Equal(t, "開く(&O)", c.Translate("BaseGui", "&Open", "file menu"))
}

func TestPluralLookupJapanese(t *testing.T) {
	c := loadSample(t)
	const src = "%n subtitle(s) extracted"

	for _, n := range []int{0, 1, 2, 100} {
		got, ok := c.PluralLookup("BaseGui", src, "", n)
		require.True(t, ok)
		assert.Equal(t, "%n 個の字幕が抽出されました", got, "n=%d", n)
	}

	assert.Equal(t, "100 個の字幕が抽出されました", c.TranslateN("BaseGui", src, "", 100))
	assert.Equal(t, "3 file(s)", c.TranslateN("BaseGui", "%n file(s)", "", 3))

	got, ok := c.PluralLookup("Languages", "Japanese", "", 5)
	require.True(t, ok)
	assert.Equal(t, "日本語", got, "non-numerus messages return their translation")
}

func TestPluralLookupRussian(t *testing.T) {
	f := tsfile.NewFile("ru")
	f.AddContext("BaseGui").Messages = []*tsfile.Message{{
		Source:       "%n subtitle(s) extracted",
		Numerus:      true,
		NumerusForms: []string{"%n субтитр", "%n субтитра", "%n субтитров"},
	}}
	c := New(f)

	want := map[int]string{1: "%n субтитр", 3: "%n субтитра", 5: "%n субтитров", 21: "%n субтитр"}
	for n, w := range want {
		got, ok := c.PluralLookup("BaseGui", "%n subtitle(s) extracted", "", n)
		require.True(t, ok)
		assert.Equal(t, w, got, "n=%d", n)
	}
}

func TestCatalogIndependentOfDocument(t *testing.T) {
	f, err := tsfile.ParseFile(smplayerJA)
	require.NoError(t, err)
	c := New(f)

	f.Find(tsfile.Key{Context: "Languages", Source: "Japanese"}).Translation = "changed"
	got, _ := c.Lookup("Languages", "Japanese", "")
	assert.Equal(t, "日本語", got)
}

func TestMemoryIncludesObsolete(t *testing.T) {
	c := loadSample(t)

	hits := c.Memory("Toolbars")
	require.Len(t, hits, 1)
	assert.Equal(t, Suggestion{Context: "PrefGeneral", Translation: "ツールバー", Obsolete: true}, hits[0])

	hits = c.Memory("&Open")
	require.Len(t, hits, 2)
	assert.False(t, hits[0].Obsolete)
	assert.Equal(t, "BaseGui", hits[0].Context)
	assert.Equal(t, "PrefGeneral", hits[1].Context)

	assert.Nil(t, c.Memory("Show &tags"), "empty translations are not suggested")
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken_ja.ts")
	require.NoError(t, os.WriteFile(path, []byte("<TS><context><name>x</context></TS>"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	var pe *tsfile.ParseError
	assert.True(t, errors.As(err, &pe), "error should wrap *tsfile.ParseError: %v", err)
}

func TestStrictLogsMissingOnce(t *testing.T) {
	var buf bytes.Buffer
	c := loadSample(t, WithStrict(true), WithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel)))

	for i := 0; i < 3; i++ {
		c.Translate("BaseGui", "Nope", "")
	}
	c.TranslateN("BaseGui", "%n nopes", "", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"source":"Nope"`)
	assert.Contains(t, lines[0], `"language":"ja"`)
}

func TestConcurrentReads(t *testing.T) {
	c := loadSample(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := c.Translate("Languages", "Japanese", ""); got != "日本語" {
					t.Errorf("Translate = %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	de := tsfile.NewFile("de")
	de.AddContext("Languages").Messages = []*tsfile.Message{{Source: "Japanese", Translation: "Japanisch"}}
	dePath := filepath.Join(dir, "smplayer_de.ts")
	require.NoError(t, de.WriteFile(dePath))

	s, err := LoadAll(context.Background(), []string{smplayerJA, dePath})
	require.NoError(t, err)
	assert.Equal(t, []language.Tag{language.German, language.Japanese}, s.Languages())

	c, ok := s.Get(language.German)
	require.True(t, ok)
	assert.Equal(t, "Japanisch", c.Translate("Languages", "Japanese", ""))

	_, ok = s.Get(language.French)
	assert.False(t, ok)
}

func TestLoadAllErrors(t *testing.T) {
	dir := t.TempDir()
	noLang := filepath.Join(dir, "nolang.ts")
	require.NoError(t, tsfile.NewFile("").WriteFile(noLang))

	_, err := LoadAll(context.Background(), []string{smplayerJA, noLang})
	assert.ErrorIs(t, err, ErrNoLanguage)

	_, err = LoadAll(context.Background(), []string{smplayerJA, smplayerJA})
	assert.ErrorContains(t, err, "already loaded")

	_, err = LoadAll(context.Background(), []string{filepath.Join(dir, "missing_ja.ts")})
	assert.Error(t, err)
}

func TestWithLanguageFillsMissingAttribute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smplayer_ru.ts")
	f := tsfile.NewFile("")
	f.AddContext("BaseGui").Messages = []*tsfile.Message{{
		Source:       "%n subtitle(s) extracted",
		Numerus:      true,
		NumerusForms: []string{"%n субтитр", "%n субтитра", "%n субтитров"},
	}}
	require.NoError(t, f.WriteFile(path))

	s, err := LoadAll(context.Background(), []string{path}, WithLanguage("ru"))
	require.NoError(t, err)
	c, ok := s.Get(language.Russian)
	require.True(t, ok)
	assert.Equal(t, "5 субтитров", c.TranslateN("BaseGui", "%n subtitle(s) extracted", "", 5))

	ja, err := Load(smplayerJA, WithLanguage("ru"))
	require.NoError(t, err)
	assert.Equal(t, "ja", ja.Code(), "the document's own language wins")
}

func TestValidate(t *testing.T) {
	f, err := tsfile.ParseFile(smplayerJA)
	require.NoError(t, err)
	assert.Empty(t, Validate(f))

	bad := tsfile.NewFile("ja")
	bad.AddContext("BaseGui").Messages = []*tsfile.Message{
		{Source: "&Open", Translation: "開く(&O)"},
		{Source: "&Open", Translation: "開く"},
		{Source: "Version: %1", Translation: "バージョン"},
		{Source: "%n files", Numerus: true, NumerusForms: []string{"%n ファイル", "%n ファイル"}},
		{Source: "Fish && chips", Translation: "フィッシュ&&チップス"},
	}

	kinds := make(map[IssueKind]int)
	for _, is := range Validate(bad) {
		kinds[is.Kind]++
	}
	assert.Equal(t, map[IssueKind]int{
		IssueDuplicate:    1,
		IssueAccelerator:  1,
		IssuePlaceMarker:  1,
		IssueNumerusCount: 1,
	}, kinds)
}
