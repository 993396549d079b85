// Package scraper turns an institutional events page into Event records.
//
// The Parser locates every event listing ("article.node-teaser--event") in a page and
// resolves each field of the listing independently. Missing sub-nodes yield nil fields.
// A date or time range that is present but does not match its expected format aborts
// the document with a *MalformedFieldError, since it usually means the publisher changed
// its layout. Relative links are resolved against the site origin, and wall-clock times
// are interpreted in the site's civil timezone.
//
// The Scraper fetches a page over HTTP and hands it to a Parser. It makes a single
// attempt per call; scheduling and retries belong to the caller.
package scraper
