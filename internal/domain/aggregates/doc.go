// Package aggregates holds the write contract for grading a submission and the error codes
// every layer of the pipeline reports with.
//
// The contract names what must change together (status, criterion scores, feedback draft)
// and leaves storage to internal/data/aggregates.
package aggregates
