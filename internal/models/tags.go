package models

import (
	"regexp"
	"strings"
)

// Tag tokens are #word sequences not preceded by "(" so that reference-link
// fragments like "(#anchor)" are never mistaken for tags.
var tagTokenRe = regexp.MustCompile(`(^|[^(\pL\pN])#([\pL\pN][\pL\pN_/-]*)`)

// NormalizeTag lowercases and trims a tag candidate.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
}

// ExtractTags pulls inline #tag tokens out of text, returning the text with
// the tokens stripped and the lowercased, deduplicated tag list. The
// reserved "ref" tag is never returned.
func ExtractTags(text string) (string, []string) {
	var tags []string
	seen := make(map[string]struct{})

	stripped := tagTokenRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := tagTokenRe.FindStringSubmatch(m)
		tag := NormalizeTag(sub[2])
		if tag != "" && tag != TagRef {
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
		return sub[1]
	})

	return strings.Join(strings.Fields(stripped), " "), tags
}
