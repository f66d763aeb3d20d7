// Package aggregates implements the submission grading contract on gorm.
//
// Each write runs in a single transaction over the table repos in internal/data/repos and
// guards status changes with a compare-and-swap on the submission row.
package aggregates
