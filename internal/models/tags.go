package models

import "strings"

// ParseTags splits a comma separated tag field into trimmed, non-empty, unique tags
func ParseTags(input string) []string {
	return MergeTags(strings.Split(input, ","))
}

// MergeTags unions tag lists in order. Each tag is trimmed, empties are dropped,
// and the first occurrence of an exact string wins.
func MergeTags(sources ...[]string) []string {
	merged := make([]string, 0)
	seen := make(map[string]struct{})
	for _, source := range sources {
		for _, tag := range source {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}
