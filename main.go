// tskit is a Qt Linguist .ts catalog toolkit: statistics, lookups, checks, PO conversion and merging.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/minios-linux/tskit/catalog"
	"github.com/minios-linux/tskit/config"
	"github.com/minios-linux/tskit/convert"
	"github.com/minios-linux/tskit/i18n"
	"github.com/minios-linux/tskit/logging"
	"github.com/minios-linux/tskit/merge"
	"github.com/minios-linux/tskit/pofile"
	"github.com/minios-linux/tskit/tsfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir   string
	logLevel  string
	logFormat string
	strict    bool

	// cfg is loaded before every command except version.
	cfg *config.File
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tskit",
		Short: "Qt Linguist .ts catalog toolkit",
		Long: `tskit: Qt Linguist .ts catalog toolkit.

Reads the XML translation catalogs produced by lupdate and edited in
Qt Linguist, and answers the same lookups a Qt application makes at run
time: by context, source text and disambiguation comment, with plural
forms chosen by the catalog's language.

Commands:
  status    Show translation statistics per catalog
  lookup    Translate one message from a catalog
  show      Translate one message in every configured catalog
  check     Report duplicates and inconsistent translations
  convert   Convert between .ts and gettext .po
  merge     Update a catalog from a freshly extracted template

Catalogs come from .tskit.yaml in the project root, or are detected
from *_<lang>.ts file names.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
	root.PersistentFlags().BoolVar(&strict, "strict", false, "Log every message that falls back to the source text")

	root.AddCommand(
		newStatusCmd(),
		newLookupCmd(),
		newShowCmd(),
		newCheckCmd(),
		newConvertCmd(),
		newMergeCmd(),
		newVersionCmd(),
	)

	return root
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = strings.ToLower(logLevel)
	}
	if flags.Changed("log-format") {
		c.Log.Format = strings.ToLower(logFormat)
	}
	if flags.Changed("strict") {
		c.Strict = strict
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := logging.Setup(c.Log.Level, c.Log.Format); err != nil {
		return err
	}
	cfg = c
	return nil
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		// No project config needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tskit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [files...]",
		Short: "Show translation statistics per catalog",
		Long: `Show per-catalog translation progress.

Without arguments, the catalogs from .tskit.yaml (or detected *.ts files)
are listed. Obsolete and vanished messages are counted separately and do
not count towards progress. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args)
		},
	}

	return cmd
}

type statusRow struct {
	cat   config.Catalog
	path  string
	stats tsfile.Stats
	err   error
}

func runStatus(files []string) error {
	targets, err := resolveTargets(files)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		logInfo(i18n.T("No .ts catalogs found. Pass files or list them in %s."), config.FileName)
		return nil
	}

	rows := make([]statusRow, 0, len(targets))
	langs := make([]string, 0, len(targets))
	for _, t := range targets {
		row := statusRow{cat: t.cat, path: t.path}
		f, err := tsfile.ParseFile(t.path)
		if err != nil {
			row.err = err
		} else {
			row.stats = f.Stats()
			if f.Language != "" {
				row.cat.Language = f.Language
			}
		}
		rows = append(rows, row)
		langs = append(langs, row.cat.Language)
	}

	width := max(langColumnWidth(langs), len("Lang"))

	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))
	fmt.Fprintf(os.Stderr, "   %-*s %-24s %-8s %-8s %-8s %s\n", width, "Lang", i18n.T("Language"), i18n.T("Done"), i18n.T("Todo"), i18n.T("Obsolete"), i18n.T("Progress"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))

	var failed []statusRow
	total := 0
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "%s %-24s %s\n", langCell(r.cat.Language, width), langName(r.cat.Language), i18n.T("unreadable"))
			failed = append(failed, r)
			continue
		}
		s := r.stats
		fmt.Fprintf(os.Stderr, "%s %-24s %-8d %-8d %-8d %s\n",
			langCell(r.cat.Language, width), truncate(langName(r.cat.Language), 24),
			s.Finished, s.Unfinished, s.Obsolete+s.Vanished, progressBar(s.Percent(), 20))
		total += s.Total
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))
	fmt.Fprintf(os.Stderr, i18n.N("%d catalog", "%d catalogs", len(rows))+", "+i18n.N("%d message", "%d messages", total)+"\n", len(rows), total)
	fmt.Fprintln(os.Stderr)

	for _, r := range failed {
		logWarning("%s: %v", r.path, r.err)
	}
	return nil
}

type target struct {
	cat  config.Catalog
	path string
}

// resolveTargets returns the files given on the command line, or the
// configured catalogs when there are none.
func resolveTargets(files []string) ([]target, error) {
	if len(files) > 0 {
		targets := make([]target, 0, len(files))
		for _, f := range files {
			name, lang := config.SplitName(f)
			targets = append(targets, target{
				cat:  config.Catalog{Name: name, Path: f, Language: lang},
				path: f,
			})
		}
		return targets, nil
	}

	paths, err := cfg.Paths(rootDir)
	if err != nil {
		return nil, err
	}
	targets := make([]target, 0, len(paths))
	for i, p := range paths {
		targets = append(targets, target{cat: cfg.Catalogs[i], path: p})
	}
	return targets, nil
}

// ---------------------------------------------------------------------------
// lookup / show (runtime translation)
// ---------------------------------------------------------------------------

type lookupArgs struct {
	comment string
	count   int
	memory  bool
}

func newLookupCmd() *cobra.Command {
	var a lookupArgs

	cmd := &cobra.Command{
		Use:   "lookup FILE CONTEXT SOURCE",
		Short: "Translate one message from a catalog",
		Long: `Translate a message the way a Qt application would.

Obsolete, vanished and unfinished translations are never returned; the
source text is printed instead. A disambiguation comment that has no
translation of its own falls back to the message without comment.

With --count, the plural form for that number is chosen by the catalog's
language and every %n is replaced by the number.`,
		Example: `  tskit lookup translations/smplayer_ja.ts Languages Japanese
  tskit lookup smplayer_ja.ts BaseGui "&Off" --comment "denoise menu"
  tskit lookup smplayer_ja.ts BaseGui "%n subtitle(s) extracted" -n 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, args[0], args[1], args[2], a)
		},
	}

	cmd.Flags().StringVarP(&a.comment, "comment", "c", "", "Disambiguation comment")
	cmd.Flags().IntVarP(&a.count, "count", "n", 0, "Number selecting the plural form")
	cmd.Flags().BoolVar(&a.memory, "memory", false, "Also list every known translation of the source text, including obsolete ones")

	return cmd
}

func runLookup(cmd *cobra.Command, file, ctxName, source string, a lookupArgs) error {
	_, lang := config.SplitName(file)
	c, err := catalog.Load(file, catalog.WithStrict(cfg.Strict), catalog.WithLanguage(lang))
	if err != nil {
		return err
	}

	numeric := cmd.Flags().Changed("count")
	var found bool
	if numeric {
		_, found = c.PluralLookup(ctxName, source, a.comment, a.count)
		fmt.Println(c.TranslateN(ctxName, source, a.comment, a.count))
	} else {
		_, found = c.Lookup(ctxName, source, a.comment)
		fmt.Println(c.Translate(ctxName, source, a.comment))
	}
	if !found {
		logWarning(i18n.T("No exact translation for %q in context %q"), source, ctxName)
	}

	if a.memory {
		for _, s := range c.Memory(source) {
			where := s.Context
			if s.Comment != "" {
				where += "|" + s.Comment
			}
			mark := ""
			if s.Obsolete {
				mark = " (" + i18n.T("obsolete") + ")"
			}
			fmt.Printf("  %s: %s%s\n", where, s.Translation, mark)
		}
	}
	return nil
}

func newShowCmd() *cobra.Command {
	var a lookupArgs

	cmd := &cobra.Command{
		Use:   "show CONTEXT SOURCE",
		Short: "Translate one message in every configured catalog",
		Long: `Load every configured catalog concurrently and print the translation of
one message per language. Each catalog must declare a distinct language.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], args[1], a)
		},
	}

	cmd.Flags().StringVarP(&a.comment, "comment", "c", "", "Disambiguation comment")
	cmd.Flags().IntVarP(&a.count, "count", "n", 0, "Number selecting the plural form")

	return cmd
}

func runShow(cmd *cobra.Command, ctxName, source string, a lookupArgs) error {
	paths, err := cfg.Paths(rootDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logInfo(i18n.T("No .ts catalogs found. Pass files or list them in %s."), config.FileName)
		return nil
	}

	set, err := catalog.LoadAll(cmd.Context(), paths, catalog.WithStrict(cfg.Strict))
	if err != nil {
		return err
	}

	numeric := cmd.Flags().Changed("count")
	for _, tag := range set.Languages() {
		c, _ := set.Get(tag)
		text := c.Translate(ctxName, source, a.comment)
		if numeric {
			text = c.TranslateN(ctxName, source, a.comment, a.count)
		}
		fmt.Printf("%-8s %s\n", tag, text)
	}
	return nil
}

// ---------------------------------------------------------------------------
// check (validation)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report duplicates and inconsistent translations",
		Long: `Check catalogs for problems that make lookups ambiguous or translations
wrong at run time:

  duplicate      the same source and comment twice in one context
  numerus-count  plural translations with the wrong number of forms
  place-marker   %1..%99 markers missing from or added to a translation
  accelerator    an & shortcut present on only one side

Exits with a non-zero status when any problem is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}

	return cmd
}

func runCheck(files []string) error {
	targets, err := resolveTargets(files)
	if err != nil {
		return err
	}

	total := 0
	for _, t := range targets {
		f, err := tsfile.ParseFile(t.path)
		if err != nil {
			logError("%v", err)
			total++
			continue
		}
		issues := catalog.Validate(f)
		if len(issues) == 0 {
			logSuccess("%s", t.path)
			continue
		}
		logWarning("%s: %s", t.path, fmt.Sprintf(i18n.N("%d issue", "%d issues", len(issues)), len(issues)))
		for _, is := range issues {
			fmt.Fprintf(os.Stderr, "  %s\n", is)
		}
		total += len(issues)
	}

	if total > 0 {
		return fmt.Errorf(i18n.N("%d problem found", "%d problems found", total), total)
	}
	return nil
}

// ---------------------------------------------------------------------------
// convert (.ts <-> .po)
// ---------------------------------------------------------------------------

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert between .ts and gettext .po",
		Long: `Convert a catalog; the direction follows the file extensions.

  .ts -> .po   msgctxt carries "context|comment", unfinished translations
               with text become fuzzy, obsolete messages are written as #~
  .po -> .ts   the reverse mapping
  .ts -> .ts   rewrite in lupdate's layout`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}

	return cmd
}

func runConvert(in, out string) error {
	inExt, outExt := strings.ToLower(filepath.Ext(in)), strings.ToLower(filepath.Ext(out))

	switch {
	case inExt == ".ts" && (outExt == ".po" || outExt == ".pot"):
		f, err := tsfile.ParseFile(in)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
		if err := convert.ToPO(f).WriteFile(out); err != nil {
			return err
		}

	case (inExt == ".po" || inExt == ".pot") && outExt == ".ts":
		p, err := pofile.ParseFile(in)
		if err != nil {
			return err
		}
		f := convert.FromPO(p)
		if f.Language == "" {
			_, f.Language = config.SplitName(out)
		}
		if err := f.WriteFile(out); err != nil {
			return err
		}

	case inExt == ".ts" && outExt == ".ts":
		f, err := tsfile.ParseFile(in)
		if err != nil {
			return err
		}
		if err := f.WriteFile(out); err != nil {
			return err
		}

	default:
		return fmt.Errorf(i18n.T("cannot convert %s to %s (supported: .ts, .po)"), in, out)
	}

	logSuccess(i18n.T("Wrote %s"), out)
	return nil
}

// ---------------------------------------------------------------------------
// merge (lupdate-style update)
// ---------------------------------------------------------------------------

func newMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge EXISTING TEMPLATE",
		Short: "Update a catalog from a freshly extracted template",
		Long: `Merge a template (a .ts file listing the current source strings) into an
existing translation, as lupdate does:

  - new messages are added as unfinished
  - kept messages keep their translation and take new locations
  - obsolete messages that reappear become unfinished for review
  - messages gone from the template become obsolete (or vanished when
    they were never translated)

A missing EXISTING file is created. The result replaces EXISTING
unless --output is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result here instead of EXISTING")

	return cmd
}

func runMerge(existingPath, templatePath, output string) error {
	template, err := tsfile.ParseFile(templatePath)
	if err != nil {
		return err
	}

	existing, err := tsfile.ParseFile(existingPath)
	if errors.Is(err, fs.ErrNotExist) {
		_, lang := config.SplitName(existingPath)
		existing = tsfile.NewFile(lang)
		logInfo(i18n.T("Creating %s"), existingPath)
	} else if err != nil {
		return err
	}

	merged, sum := merge.Merge(existing, template)
	if output == "" {
		output = existingPath
	}
	if err := merged.WriteFile(output); err != nil {
		return err
	}

	logSuccess(i18n.T("Merged into %s: %d added, %d kept, %d revived, %d obsoleted"),
		output, sum.Added, sum.Kept, sum.Revived, sum.Obsoleted)
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// progressBar renders a colored bar followed by the right-aligned percentage.
func progressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// flagFromRegion maps a two-letter region code to its flag emoji.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

// langFlag returns the flag of a language code's explicit region, or of
// the language's most likely region ("ja" -> JP).
func langFlag(code string) string {
	code = strings.ReplaceAll(code, "_", "-")
	if i := strings.LastIndexByte(code, '-'); i >= 0 {
		if f := flagFromRegion(code[i+1:]); f != "" {
			return f
		}
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	return flagFromRegion(region.String())
}

// langName returns a language's own name followed by its English name,
// for example "日本語 (Japanese)".
func langName(code string) string {
	if code == "" {
		return "-"
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	self := display.Self.Name(tag)
	english := display.English.Languages().Name(tag)
	switch {
	case self == "" && english == "":
		return code
	case self == "" || self == english:
		return english
	case english == "":
		return self
	}
	return self + " (" + english + ")"
}

func langColumnWidth(langs []string) int {
	width := 0
	for _, l := range langs {
		width = max(width, len(l))
	}
	return width
}

// langCell renders a flag and a padded language code; a missing flag is
// replaced by blanks of the same display width.
func langCell(code string, width int) string {
	flag := langFlag(code)
	if flag == "" {
		flag = "  "
	}
	if code == "" {
		code = "?"
	}
	return fmt.Sprintf("%s %-*s", flag, width, code)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
