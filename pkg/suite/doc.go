// Package suite holds the black-box scenarios run against a Groovy
// execution service.
//
// Each Scenario drives the service through a client.Client and returns a
// non-nil error when an expectation does not hold. Scenarios share a
// Harness built once from the environment and validation documents.
// Concurrent scenarios issue their calls on a bounded worker pool and
// assert only after every call has finished.
package suite
