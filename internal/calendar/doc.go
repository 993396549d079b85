// Package calendar serializes harvested events into an iCalendar (RFC 5545) document.
//
// One document is produced per source. Events without a complete time range are
// left out. Output depends only on its inputs, so serializing the same events twice
// yields identical bytes.
package calendar
