package model

import "errors"

// Error taxonomy for the pipeline. Fetch and config errors abort the run;
// parse errors and join mismatches are handled where they occur (skip and
// warn) and never surface as these sentinels.
var (
	// ErrFetch wraps network or storage failures while downloading.
	ErrFetch = errors.New("fetch error")

	// ErrParse wraps malformed input that could not be skipped.
	ErrParse = errors.New("parse error")

	// ErrConfig wraps invalid settings, e.g. an unknown palette or column.
	ErrConfig = errors.New("config error")
)
