package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/minios-linux/tskit/numerus"
	"github.com/minios-linux/tskit/tsfile"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	// IssueDuplicate is a (source, comment) pair used twice in a context.
	IssueDuplicate IssueKind = "duplicate"
	// IssueNumerusCount is a numerus message whose form count differs from
	// what the language needs.
	IssueNumerusCount IssueKind = "numerus-count"
	// IssuePlaceMarker is a translation whose %1..%99 markers differ from
	// the source.
	IssuePlaceMarker IssueKind = "place-marker"
	// IssueAccelerator is a translation that drops or adds an &-accelerator.
	IssueAccelerator IssueKind = "accelerator"
)

// Issue is a single validation finding.
type Issue struct {
	Kind   IssueKind
	Key    tsfile.Key
	Detail string
}

func (i Issue) String() string {
	where := i.Key.Context + ": " + i.Key.Source
	if i.Key.Comment != "" {
		where += " (" + i.Key.Comment + ")"
	}
	return fmt.Sprintf("[%s] %s: %s", i.Kind, where, i.Detail)
}

var placeMarker = regexp.MustCompile(`%L?(\d{1,2})`)

// Validate checks a document the way Qt Linguist's validators do:
// duplicate keys, numerus form counts, place markers and accelerators.
// Only finished translations of active messages are checked beyond
// duplicates.
func Validate(f *tsfile.File) []Issue {
	var issues []Issue
	for _, d := range f.Duplicates() {
		issues = append(issues, Issue{
			Kind:   IssueDuplicate,
			Key:    d.Key,
			Detail: fmt.Sprintf("defined %d times", d.Count),
		})
	}

	want := 0
	if tag, err := numerus.ParseTag(f.Language); err == nil {
		want = numerus.Count(tag)
	}

	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			if !m.IsActive() || !m.IsTranslated() {
				continue
			}
			k := tsfile.Key{Context: c.Name, Source: m.Source, Comment: m.Comment}

			texts := []string{m.Translation}
			if m.Numerus {
				texts = m.NumerusForms
				if want > 0 && len(m.NumerusForms) != want {
					issues = append(issues, Issue{
						Kind:   IssueNumerusCount,
						Key:    k,
						Detail: fmt.Sprintf("%d forms, language %s needs %d", len(m.NumerusForms), f.Language, want),
					})
				}
			}

			srcMarkers := markers(m.Source)
			srcAccel := hasAccelerator(m.Source)
			for _, text := range texts {
				if got := markers(text); got != srcMarkers {
					issues = append(issues, Issue{
						Kind:   IssuePlaceMarker,
						Key:    k,
						Detail: fmt.Sprintf("source uses {%s}, translation uses {%s}", srcMarkers, got),
					})
				}
				if hasAccelerator(text) != srcAccel {
					issues = append(issues, Issue{
						Kind:   IssueAccelerator,
						Key:    k,
						Detail: "accelerator mismatch in " + fmt.Sprintf("%q", text),
					})
				}
			}
		}
	}
	return issues
}

// markers returns the sorted, deduplicated place markers of s as "1,2".
func markers(s string) string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeMarker.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// hasAccelerator reports whether s contains an &-accelerator. "&&" is a
// literal ampersand.
func hasAccelerator(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] != '&' {
			continue
		}
		if s[i+1] == '&' {
			i++
			continue
		}
		if s[i+1] != ' ' {
			return true
		}
	}
	return false
}
