package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownSectionKeys maps each top-level TOML table to the keys valid
// inside it. These correspond to the toml tags on the embedded
// sub-config structs.
var knownSectionKeys = map[string]map[string]bool{
	"collection": {"root": true},
	"cloud":      {"endpoint": true, "region": true, "bucket": true},
	"import":     {"default_file_type": true},
	"logging":    {"log_level": true},
}

// knownSectionsList and knownKeysList are the sorted slice forms used for
// Levenshtein matching. Sorted for deterministic suggestions when two
// candidates have the same edit distance.
var knownSectionsList = func() []string {
	sections := make([]string, 0, len(knownSectionKeys))
	for s := range knownSectionKeys {
		sections = append(sections, s)
	}

	sort.Strings(sections)

	return sections
}()

var knownKeysList = func() []string {
	seen := make(map[string]bool)

	for _, keys := range knownSectionKeys {
		for k := range keys {
			seen[k] = true
		}
	}

	list := make([]string, 0, len(seen))
	for k := range seen {
		list = append(list, k)
	}

	sort.Strings(list)

	return list
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		if err := buildGlobalKeyError(key.String()); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// buildGlobalKeyError creates a descriptive error for an unknown config
// key, optionally suggesting the closest known section or key name.
func buildGlobalKeyError(keyStr string) error {
	parts := strings.SplitN(keyStr, ".", 2)
	section := parts[0]

	keys, ok := knownSectionKeys[section]
	if !ok {
		suggestion := closestMatch(section, knownSectionsList)
		if suggestion != "" {
			return fmt.Errorf("unknown config section %q — did you mean %q?", section, suggestion)
		}

		return fmt.Errorf("unknown config section %q", section)
	}

	if len(parts) == 1 {
		return nil
	}

	field := parts[1]
	if keys[field] {
		return nil
	}

	suggestion := closestMatch(field, knownKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q in [%s] — did you mean %q?", field, section, suggestion)
	}

	return fmt.Errorf("unknown config key %q in [%s]", field, section)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Use single-row optimization to avoid allocating a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// minOf returns the minimum of three integers.
func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
