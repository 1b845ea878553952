package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the file types picked up when a directory is given.
var DefaultExtensions = []string{".csv", ".log", ".txt"}

// Discover resolves the given paths into input files. Files are taken as
// given; directories contribute their direct children whose extension is in
// exts (DefaultExtensions when empty). Output files from earlier runs
// (p_<name>) are skipped. The result is sorted by path without duplicates.
func Discover(paths []string, exts []string) ([]InputFile, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[strings.ToLower(e)] = true
	}

	seen := make(map[string]struct{})
	var files []InputFile
	add := func(path string) {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, InputFile{Path: clean, Name: filepath.Base(clean)})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat input %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasPrefix(name, outputPrefix) || !want[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			add(filepath.Join(p, name))
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

const outputPrefix = "p_"

// OutputPath returns where the report for input is written. A non-empty
// outputFile collects every input into outputDir/outputFile; otherwise each
// input gets its own outputDir/p_<basename>.
func OutputPath(input, outputDir, outputFile string) string {
	if outputFile != "" {
		return filepath.Join(outputDir, outputFile)
	}
	return filepath.Join(outputDir, outputPrefix+filepath.Base(input))
}
