// Package dialogue selects localized dialogue text and formats speech lines.
package dialogue

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/types"
)

// Fallback is the language used when no key matches the requested one.
const Fallback = "en"

// Text returns the entry of d that best matches lang. Matching follows
// BCP 47 rules ("en-GB" picks "en", "ja-JP" picks "ja"); when nothing
// matches, the English entry wins, then the first key in sorted order.
func Text(d types.Dict, lang language.Tag) string {
	if len(d) == 0 {
		return ""
	}
	if v, ok := d[lang.String()]; ok {
		return v
	}

	keys := orderedKeys(d)
	var tags []language.Tag
	var tagKeys []string
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		tagKeys = append(tagKeys, k)
	}
	if len(tags) == 0 {
		return d[keys[0]]
	}

	// The first supported tag is the matcher's default.
	_, idx, _ := language.NewMatcher(tags).Match(lang)
	return d[tagKeys[idx]]
}

// orderedKeys returns the dict keys with the fallback language first and the
// rest sorted.
func orderedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		if k != Fallback {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := d[Fallback]; ok {
		keys = append([]string{Fallback}, keys...)
	}
	return keys
}

// DisplayName turns an entity name into a speaker label.
// "witch_cat" -> "Witch Cat".
func DisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Line formats a speech line with its speaker.
func Line(speaker, text string) string {
	if speaker == "" {
		return text
	}
	return DisplayName(speaker) + ": '" + text + "'"
}
