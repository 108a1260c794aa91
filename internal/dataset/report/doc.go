// Package report renders a finished run as charts: a PNG of day retention
// per location and an HTML page of fold sizes.
package report
