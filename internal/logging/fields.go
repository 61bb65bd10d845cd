package logging

// Structured field names.
const (
	FieldError    = "error"
	FieldPath     = "path"
	FieldFiles    = "files"
	FieldJobs     = "jobs"
	FieldTrees    = "trees"
	FieldNodes    = "nodes"
	FieldSymbols  = "symbols"
	FieldGrammar  = "grammar"
	FieldConfig   = "config"
	FieldDuration = "duration"
)
