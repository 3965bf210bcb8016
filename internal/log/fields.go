// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldDuration  = "duration_ms"

	// Dataset fields
	FieldStories    = "stories"
	FieldIssues     = "issues"
	FieldAuthors    = "authors"
	FieldSkipped    = "skipped"
	FieldGeneration = "generation"

	// Domain fields
	FieldAuthor = "author"
	FieldYear   = "year"
	FieldMonth  = "month"
	FieldTitle  = "title"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
