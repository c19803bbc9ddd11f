// Package pagelink resolves catalog identifiers from third-party film pages
// that link back to the catalog, such as Letterboxd film pages. Fetching is
// rate limited through the same limiter as catalog searches; parsing is a
// pure function over the page HTML.
package pagelink
