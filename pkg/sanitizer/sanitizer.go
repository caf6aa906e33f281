// Package sanitizer cleans user-generated forum content before it reaches
// the store. Post bodies keep a small safe formatting subset; titles are
// stripped to plain text.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	titlePolicy *bluemonday.Policy
	bodyPolicy  *bluemonday.Policy
	initOnce    sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// Titles carry no markup at all.
		titlePolicy = bluemonday.StrictPolicy()

		// Post bodies allow the formatting the composer produces: paragraphs,
		// emphasis, lists, quotes, code and plain links.
		bodyPolicy = bluemonday.NewPolicy()
		bodyPolicy.AllowStandardURLs()
		bodyPolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i", "s", "u",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		bodyPolicy.AllowAttrs("href").OnElements("a")
		bodyPolicy.RequireNoFollowOnLinks(true)
	})
}

// Title strips all HTML from a topic title and trims surrounding whitespace.
func Title(s string) string {
	initPolicies()
	return strings.TrimSpace(titlePolicy.Sanitize(s))
}

// PostBody keeps safe formatting in a post body and removes everything
// dangerous: scripts, event handlers, javascript: URLs, unknown elements.
func PostBody(s string) string {
	initPolicies()
	return strings.TrimSpace(bodyPolicy.Sanitize(s))
}
