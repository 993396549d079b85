// Package website renders the human-facing index page that lists every calendar
// with its subscription links.
package website
