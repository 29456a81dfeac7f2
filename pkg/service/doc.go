// Package service implements the reference Groovy execution service the
// suite is exercised against when no external testbed is configured.
//
// Submissions are stored as jobs owned by the authenticated subject and
// executed by a bounded pool of workers. Jobs move from PENDING to
// IN_PROGRESS and end in COMPLETED (with a result) or FAILED. Only the
// owning subject may read a job's status.
package service
