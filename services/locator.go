// ABOUTME: Heuristic discovery of prescription and consultation document URLs
// ABOUTME: Walks an arbitrary JSON tree and returns a sorted, deduplicated URL list

package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	pdfLike = regexp.MustCompile(`(?i)\.pdf(?:\?|$)`)

	documentHints = []*regexp.Regexp{
		regexp.MustCompile(`(?i)prescription`),
		regexp.MustCompile(`(?i)rx`),
		regexp.MustCompile(`(?i)consult`),
		regexp.MustCompile(`(?i)medication`),
		regexp.MustCompile(`(?i)treatment`),
	}
)

// LocateDocumentsJSON parses raw and runs LocateDocuments over it. Invalid JSON
// yields an empty list.
func LocateDocumentsJSON(raw []byte) []string {
	if !gjson.ValidBytes(raw) {
		return []string{}
	}
	return LocateDocuments(gjson.ParseBytes(raw))
}

// LocateDocuments collects every document-like URL reachable from tree.
func LocateDocuments(tree gjson.Result) []string {
	found := make(map[string]struct{})

	stack := []gjson.Result{tree}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.IsObject() && !node.IsArray() {
			continue
		}
		node.ForEach(func(_, value gjson.Result) bool {
			switch {
			case value.Type == gjson.String:
				if isDocumentURL(value.Str) {
					found[value.Str] = struct{}{}
				}
			case value.IsObject(), value.IsArray():
				stack = append(stack, value)
			}
			return true
		})
	}

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func isDocumentURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	if pdfLike.MatchString(s) {
		return true
	}
	for _, hint := range documentHints {
		if hint.MatchString(s) {
			return true
		}
	}
	return false
}
