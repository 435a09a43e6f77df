package config

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Detect finds *.ts catalogs under rootDir. Paths are relative to rootDir;
// hidden directories are skipped.
func Detect(rootDir string) []Catalog {
	var found []Catalog
	filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".ts" {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return nil
		}
		name, lang := SplitName(rel)
		found = append(found, Catalog{Name: name, Path: rel, Language: lang})
		return nil
	})

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found
}

// SplitName splits a catalog file name into its project name and language,
// following the lupdate convention <name>_<lang>.ts:
//
//	smplayer_ja.ts    -> "smplayer", "ja"
//	smplayer_pt_BR.ts -> "smplayer", "pt_BR"
//	ja.ts             -> "", "ja"
//	smplayer.ts       -> "smplayer", ""
func SplitName(path string) (name, lang string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if isLangCode(base) {
		return "", base
	}
	parts := strings.Split(base, "_")
	if n := len(parts); n >= 3 {
		if cand := parts[n-2] + "_" + parts[n-1]; isLangCode(cand) {
			return strings.Join(parts[:n-2], "_"), cand
		}
	}
	if n := len(parts); n >= 2 && isLangCode(parts[n-1]) {
		return strings.Join(parts[:n-1], "_"), parts[n-1]
	}
	return base, ""
}

// isLangCode checks if a string looks like a language code (ja, fil, pt_BR, zh_CN, etc).
func isLangCode(s string) bool {
	lang, region, hasRegion := strings.Cut(s, "_")
	if len(lang) < 2 || len(lang) > 3 || !isLower(lang) {
		return false
	}
	if !hasRegion {
		return true
	}
	return len(region) == 2 && isUpper(region)
}

func isLower(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isUpper(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
