// Package harvest runs the calendar pipeline for each configured source:
// fetch the events page, extract its listings, serialize them to iCalendar and
// write the file, then refresh the index page.
//
// Sources are independent. A failing source is logged and reported in the joined
// error of the run, and the remaining sources are still harvested.
package harvest
