// Package storage persists serialized calendars and the index page.
//
// Each source gets one file, <source id or name>.ics, in the output directory.
// Writes go through a temporary file and a rename so that a web server never
// serves a half-written calendar.
package storage
