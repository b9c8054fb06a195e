package nl2sql

import "errors"

var (
	ErrEmptyQuestion    = errors.New("nl2sql: question is required")
	ErrGeneration       = errors.New("nl2sql: query generation failed")
	ErrValidationFailed = errors.New("nl2sql: generated query failed validation")
)
