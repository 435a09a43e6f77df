package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func resetCatalog(t *testing.T) {
	t.Helper()
	oldPo, oldCurrent := po, current
	t.Cleanup(func() { po, current = oldPo, oldCurrent })
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "ja_JP@modifier")

		if got := detectLanguage(); got != "ja_JP" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ja_JP")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestAvailableListsEmbeddedCatalogs(t *testing.T) {
	got := map[language.Tag]bool{}
	for _, tag := range Available() {
		got[tag] = true
	}
	if !got[language.Japanese] || !got[language.Russian] {
		t.Fatalf("Available() = %v, want ja and ru", Available())
	}
}

func TestInitMatchesRegionalLocale(t *testing.T) {
	resetCatalog(t)

	Init("ja_JP")
	if Language() != language.Japanese {
		t.Fatalf("Language() = %v, want ja", Language())
	}
	if got := T("Translation Statistics"); got != "翻訳統計" {
		t.Fatalf("T() = %q, want %q", got, "翻訳統計")
	}

	Init("ru")
	for n, want := range map[int]string{1: "%d замечание", 3: "%d замечания", 11: "%d замечаний"} {
		if got := N("%d issue", "%d issues", n); got != want {
			t.Fatalf("N(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestInitUnsupportedLanguageFallsBack(t *testing.T) {
	resetCatalog(t)

	Init("de_DE")
	if Language() != language.English {
		t.Fatalf("Language() = %v, want en", Language())
	}
	if got := T("Translation Statistics"); got != "Translation Statistics" {
		t.Fatalf("T() = %q, want passthrough", got)
	}
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	resetCatalog(t)
	po = nil

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}
