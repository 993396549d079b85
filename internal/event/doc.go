// Package event provides the record type for listings harvested from an events page.
//
// An Event is a plain record of optional values. Each field is resolved independently
// from the page, so any of them may be nil. The start and end timestamps are always
// set together, and are derived from Date in the source's civil timezone.
package event
