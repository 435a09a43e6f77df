// Package i18n translates tskit's own user-facing strings.
//
// Catalogs are embedded in the binary under
// locales/<lang>/LC_MESSAGES/tskit.po and matched against the user's
// locale with golang.org/x/text/language:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("No catalogs found"))
//	fmt.Println(i18n.N("%d issue", "%d issues", count))
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// locales embeds locales/{lang}/LC_MESSAGES/tskit.po.
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for tskit.
const domain = "tskit"

// baseTag is the language the strings are written in.
var baseTag = language.English

var (
	po      *gotext.Po
	current = baseTag
)

// Init loads the catalog best matching lang. If lang is empty, it
// auto-detects from LANGUAGE, LC_ALL, LC_MESSAGES, LANG (in that order,
// matching GNU gettext behavior).
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	available := Available()
	tags := append([]language.Tag{baseTag}, available...)
	matcher := language.NewMatcher(tags)
	_, idx, conf := matcher.Match(parseLocale(lang))

	po, current = nil, baseTag
	if idx == 0 || conf == language.No {
		return
	}

	tag := tags[idx]
	dir := dirFor(tag)
	p := gotext.NewPoFS(locales)
	p.ParseFile(path.Join("locales", dir, "LC_MESSAGES", domain+".po"))
	po, current = p, tag
}

// Language returns the language of the loaded catalog.
func Language() language.Tag { return current }

// Available lists the embedded catalog languages.
func Available() []language.Tag {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var tags []language.Tag
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(locales, path.Join("locales", e.Name(), "LC_MESSAGES", domain+".po")); err != nil {
			continue
		}
		if t, err := language.Parse(strings.ReplaceAll(e.Name(), "_", "-")); err == nil {
			tags = append(tags, t)
		}
	}
	return tags
}

// T translates a string. If no translation is available, returns the
// msgid unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

func dirFor(tag language.Tag) string {
	entries, _ := fs.ReadDir(locales, "locales")
	for _, e := range entries {
		if t, err := language.Parse(strings.ReplaceAll(e.Name(), "_", "-")); err == nil && t == tag {
			return e.Name()
		}
	}
	return tag.String()
}

func parseLocale(s string) language.Tag {
	t, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return baseTag
	}
	return t
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "ru_RU.UTF-8" -> "ru_RU", "de_DE@euro" -> "de_DE"
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
