// Package merge implements .ts catalog updating,
// equivalent to what lupdate does with an existing translation file.
package merge

import (
	"github.com/minios-linux/tskit/tsfile"
)

// Summary counts what Merge did.
type Summary struct {
	// Added messages are new in the template.
	Added int
	// Kept messages exist in both files.
	Kept int
	// Revived messages were obsolete or vanished and reappeared.
	Revived int
	// Obsoleted messages are gone from the template; they are marked
	// obsolete (translated) or vanished (untranslated), never removed.
	Obsoleted int
}

// Merge updates a translated catalog with a freshly extracted template.
//   - New messages from the template are added as unfinished.
//   - Messages in both keep their translation and take locations and
//     developer comments from the template.
//   - Obsolete or vanished messages that reappear become unfinished with
//     their old translation, for a translator to confirm.
//   - Messages missing from the template become obsolete or vanished.
//
// Neither input is modified.
func Merge(existing, template *tsfile.File) (*tsfile.File, Summary) {
	var sum Summary

	result := &tsfile.File{
		Version:        existing.Version,
		Language:       existing.Language,
		SourceLanguage: existing.SourceLanguage,
	}
	if result.Version == "" {
		result.Version = template.Version
	}
	if result.SourceLanguage == "" {
		result.SourceLanguage = template.SourceLanguage
	}

	// Index existing messages; the first occurrence of a key wins.
	byKey := make(map[tsfile.Key]*tsfile.Message)
	for _, c := range existing.Contexts {
		for _, m := range c.Messages {
			k := tsfile.Key{Context: c.Name, Source: m.Source, Comment: m.Comment}
			if _, ok := byKey[k]; !ok {
				byKey[k] = m
			}
		}
	}

	matched := make(map[tsfile.Key]bool)

	// Process template messages in order
	for _, tc := range template.Contexts {
		rc := result.AddContext(tc.Name)
		if rc.Comment == "" {
			rc.Comment = tc.Comment
		}
		for _, tm := range tc.Messages {
			k := tsfile.Key{Context: tc.Name, Source: tm.Source, Comment: tm.Comment}
			if matched[k] || !tm.IsActive() {
				continue
			}
			matched[k] = true

			old, ok := byKey[k]
			if !ok {
				rc.Messages = append(rc.Messages, &tsfile.Message{
					ID:           tm.ID,
					Numerus:      tm.Numerus,
					Locations:    append([]tsfile.Location(nil), tm.Locations...),
					Source:       tm.Source,
					Comment:      tm.Comment,
					ExtraComment: tm.ExtraComment,
					Type:         tsfile.TypeUnfinished,
				})
				sum.Added++
				continue
			}

			merged := &tsfile.Message{
				ID:                tm.ID,
				Numerus:           tm.Numerus,
				Locations:         append([]tsfile.Location(nil), tm.Locations...),
				Source:            tm.Source,
				OldSource:         old.OldSource,
				Comment:           tm.Comment,
				OldComment:        old.OldComment,
				ExtraComment:      tm.ExtraComment,
				TranslatorComment: old.TranslatorComment,
				Translation:       old.Translation,
				NumerusForms:      append([]string(nil), old.NumerusForms...),
				Type:              old.Type,
			}
			if !old.IsActive() {
				merged.Type = tsfile.TypeUnfinished
				sum.Revived++
			} else {
				sum.Kept++
			}
			rc.Messages = append(rc.Messages, merged)
		}
	}

	// Retire messages that left the code base
	for _, c := range existing.Contexts {
		for _, m := range c.Messages {
			k := tsfile.Key{Context: c.Name, Source: m.Source, Comment: m.Comment}
			if matched[k] {
				continue
			}
			matched[k] = true

			retired := *m
			retired.Locations = nil
			retired.NumerusForms = append([]string(nil), m.NumerusForms...)
			if m.IsActive() {
				if m.HasText() {
					retired.Type = tsfile.TypeObsolete
				} else {
					retired.Type = tsfile.TypeVanished
				}
				sum.Obsoleted++
			}

			rc := result.AddContext(c.Name)
			rc.Messages = append(rc.Messages, &retired)
		}
	}

	// Drop contexts that ended up empty
	kept := result.Contexts[:0]
	for _, c := range result.Contexts {
		if len(c.Messages) > 0 {
			kept = append(kept, c)
		}
	}
	result.Contexts = kept

	return result, sum
}
