package convert

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/leonelquinteros/gotext"

	"github.com/minios-linux/tskit/pofile"
	"github.com/minios-linux/tskit/tsfile"
)

func loadSample(t *testing.T) *tsfile.File {
	t.Helper()
	f, err := tsfile.ParseFile("../testdata/smplayer_ja.ts")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return f
}

func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestToPOHeaderAndEntries(t *testing.T) {
	fixedClock(t)
	p := ToPO(loadSample(t))

	headers := map[string]string{
		"Language":         "ja",
		"Plural-Forms":     "nplurals=1; plural=0;",
		"Content-Type":     "text/plain; charset=UTF-8",
		"X-Qt-Version":     "2.0",
		"PO-Revision-Date": "2024-03-01 12:30+0000",
	}
	for k, want := range headers {
		if got := p.HeaderField(k); got != want {
			t.Errorf("HeaderField(%s) = %q, want %q", k, got, want)
		}
	}
	if len(p.Entries) != 16 {
		t.Fatalf("entries = %d, want 16", len(p.Entries))
	}

	byCtxID := make(map[string]*pofile.Entry)
	for _, e := range p.Entries {
		byCtxID[e.MsgCtxt+"\x00"+e.MsgID] = e
	}

	off := byCtxID["BaseGui|denoise menu\x00&Off"]
	if off == nil {
		t.Fatal("disambiguated &Off not found under msgctxt BaseGui|denoise menu")
	}
	if !reflect.DeepEqual(off.References, []string{"../basegui.cpp:1581", "../basegui.cpp:1602"}) {
		t.Errorf("References = %v", off.References)
	}
	if off.IsFuzzy() || !off.HasFlag("qt-format") {
		t.Errorf("Flags = %v", off.Flags)
	}

	saved := byCtxID["BaseGui\x00Playlist \"%1\" saved"]
	if saved == nil || !saved.IsFuzzy() {
		t.Errorf("unfinished message with text should be fuzzy: %+v", saved)
	}
	tags := byCtxID["BaseGui\x00Show &tags"]
	if tags == nil || tags.IsFuzzy() || tags.MsgStr != "" {
		t.Errorf("empty unfinished message should be plain untranslated: %+v", tags)
	}

	toolbars := byCtxID["BaseGui\x00&Toolbars"]
	if toolbars == nil || !toolbars.Obsolete || toolbars.IsFuzzy() {
		t.Errorf("obsolete message should be #~ without fuzzy: %+v", toolbars)
	}

	subs := byCtxID["BaseGui\x00%n subtitle(s) extracted"]
	if subs == nil || subs.MsgIDPlural == "" || len(subs.MsgStrPlural) != 1 {
		t.Errorf("numerus message = %+v", subs)
	}
}

func TestExportReadableByGotext(t *testing.T) {
	var buf bytes.Buffer
	if err := ToPO(loadSample(t)).Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	po := gotext.NewPo()
	po.Parse(buf.Bytes())

	tests := []struct {
		ctx, id, want string
	}{
		{"About", "Version: %1", "バージョン: %1"},
		{"BaseGui|denoise menu", "&Off", "オフ(&O)"},
		{"BaseGui|closed captions menu", "&Off", "オフ(&O)"},
		{"Languages", "Japanese", "日本語"},
		{"PrefGeneral", "&Open", "開く(&O)"},
	}
	for _, tt := range tests {
		if got := po.GetC(tt.id, tt.ctx); got != tt.want {
			t.Errorf("GetC(%q, %q) = %q, want %q", tt.id, tt.ctx, got, tt.want)
		}
	}
	if got := po.GetNC("%n subtitle(s) extracted", "%n subtitle(s) extracted", 5, "BaseGui"); got != "%n 個の字幕が抽出されました" {
		t.Errorf("GetNC = %q", got)
	}
}

type row struct {
	Context, Source, Comment string
	Translation              string
	Forms                    []string
	Type                     tsfile.TranslationType
	Locations                []tsfile.Location
}

func rows(f *tsfile.File) []row {
	var out []row
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			r := row{
				Context:     c.Name,
				Source:      m.Source,
				Comment:     m.Comment,
				Translation: m.Translation,
				Forms:       m.NumerusForms,
				Type:        m.Type,
			}
			// PO files carry no references for obsolete entries.
			if m.IsActive() {
				r.Locations = m.Locations
			}
			out = append(out, r)
		}
	}
	return out
}

func TestRoundTripThroughPO(t *testing.T) {
	orig := loadSample(t)

	var buf bytes.Buffer
	if err := ToPO(orig).Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	p, err := pofile.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	back := FromPO(p)

	if back.Language != "ja" || back.Version != "2.0" {
		t.Fatalf("header: language=%q version=%q", back.Language, back.Version)
	}
	if got, want := rows(back), rows(orig); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip differs:\n got %+v\nwant %+v", got, want)
	}
	if got, want := back.Stats(), orig.Stats(); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
}

func TestObsoleteAndVanishedSurviveRoundTrip(t *testing.T) {
	f := tsfile.NewFile("ru")
	f.AddContext("Dialog").Messages = []*tsfile.Message{
		{Source: "Gone", Translation: "Ушло", Type: tsfile.TypeVanished, OldSource: "Went"},
		{Source: "Empty", Type: tsfile.TypeVanished},
		{Source: "Retired", Translation: "Устарело", Type: tsfile.TypeObsolete},
		{Source: "Blank", Type: tsfile.TypeObsolete},
	}

	p := ToPO(f)
	if got := p.HeaderField("Plural-Forms"); got == "" {
		t.Error("Plural-Forms header missing for ru")
	}
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	parsed, err := pofile.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	back := FromPO(parsed)

	want := map[string]tsfile.TranslationType{
		"Gone":    tsfile.TypeVanished,
		"Empty":   tsfile.TypeVanished,
		"Retired": tsfile.TypeObsolete,
		"Blank":   tsfile.TypeObsolete,
	}
	for src, typ := range want {
		m := back.Find(tsfile.Key{Context: "Dialog", Source: src})
		if m == nil || m.Type != typ {
			t.Errorf("%s = %+v, want type %q", src, m, typ)
		}
	}
	if m := back.Find(tsfile.Key{Context: "Dialog", Source: "Gone"}); m.OldSource != "Went" {
		t.Errorf("OldSource = %q", m.OldSource)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		in   string
		want tsfile.Location
	}{
		{"../basegui.cpp:1236", tsfile.Location{Filename: "../basegui.cpp", Line: "1236"}},
		{"../prefgeneral.ui:+391", tsfile.Location{Filename: "../prefgeneral.ui", Line: "+391"}},
		{"main.qml", tsfile.Location{Filename: "main.qml"}},
		{"C:name", tsfile.Location{Filename: "C:name"}},
	}
	for _, tt := range tests {
		if got := parseReference(tt.in); got != tt.want {
			t.Errorf("parseReference(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
