package models

// ErrorCategory classifies a failure for the user-facing message
type ErrorCategory string

const (
	CategoryAuthFailure     ErrorCategory = "auth_failure"
	CategoryUnauthenticated ErrorCategory = "unauthenticated"
	CategoryFetchFailure    ErrorCategory = "fetch_failure"
	CategorySaveFailure     ErrorCategory = "save_failure"
	CategoryDeleteFailure   ErrorCategory = "delete_failure"
)
