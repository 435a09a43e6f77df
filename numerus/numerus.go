// Package numerus maps a count to the numerus form index Qt uses for a
// language.
//
// Qt stores plural translations as an ordered list of <numerusform>
// elements whose length and order depend on the target language. Japanese,
// Chinese and Korean carry a single form; English carries one/other;
// Russian one/few/many. The CLDR cardinal category of a count comes from
// golang.org/x/text/feature/plural and is placed into that ordering here.
package numerus

import (
	"fmt"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

var (
	single      = []plural.Form{plural.Other}
	oneOther    = []plural.Form{plural.One, plural.Other}
	oneFewMany  = []plural.Form{plural.One, plural.Few, plural.Many}
	oneFewOther = []plural.Form{plural.One, plural.Few, plural.Other}
	arabic      = []plural.Form{plural.Zero, plural.One, plural.Two, plural.Few, plural.Many, plural.Other}
)

// formOrder is keyed by base language. Languages not listed use one/other.
var formOrder = map[string][]plural.Form{
	"ja": single, "zh": single, "ko": single, "vi": single,
	"th": single, "id": single, "ms": single, "lo": single,
	"my": single, "km": single,

	"ru": oneFewMany, "uk": oneFewMany, "be": oneFewMany, "pl": oneFewMany,

	"cs": oneFewOther, "sk": oneFewOther, "lt": oneFewOther,
	"hr": oneFewOther, "sr": oneFewOther, "bs": oneFewOther,

	"ar": arabic,
}

// pluralForms holds gettext Plural-Forms expressions that differ from the
// default "nplurals=2; plural=(n != 1);".
var pluralForms = map[string]string{
	"fr": "nplurals=2; plural=(n > 1);",
	"pt": "nplurals=2; plural=(n > 1);",
	"ru": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"uk": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"be": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"hr": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"sr": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"bs": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"pl": "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"cs": "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);",
	"sk": "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);",
	"lt": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2);",
	"ar": "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);",
}

// ParseTag parses a Qt/gettext language code ("ja", "pt_BR", "zh-TW")
// into a BCP 47 tag.
func ParseTag(code string) (language.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Und, fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("parsing language %q: %w", code, err)
	}
	return tag, nil
}

func base(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}

// Forms returns the numerus forms of the language in Qt order.
func Forms(tag language.Tag) []plural.Form {
	if forms, ok := formOrder[base(tag)]; ok {
		return forms
	}
	return oneOther
}

// Count returns the number of numerus forms the language uses.
func Count(tag language.Tag) int {
	return len(Forms(tag))
}

// Index returns the numerus form index for count n. The result is always
// within [0, Count(tag)).
func Index(tag language.Tag, n int) int {
	forms := Forms(tag)
	if len(forms) == 1 {
		return 0
	}
	if n < 0 {
		n = -n
	}
	form := plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0)
	for i, f := range forms {
		if f == form {
			return i
		}
	}
	return len(forms) - 1
}

// Select returns the form of forms to display for count n. A list shorter
// than the language requires falls back to its last element; an empty
// list yields "".
func Select(tag language.Tag, forms []string, n int) string {
	if len(forms) == 0 {
		return ""
	}
	idx := Index(tag, n)
	if idx >= len(forms) {
		idx = len(forms) - 1
	}
	return forms[idx]
}

// PluralFormsHeader returns the gettext Plural-Forms header value for the
// language.
func PluralFormsHeader(tag language.Tag) string {
	b := base(tag)
	if Count(tag) == 1 {
		return "nplurals=1; plural=0;"
	}
	if h, ok := pluralForms[b]; ok {
		return h
	}
	return "nplurals=2; plural=(n != 1);"
}
