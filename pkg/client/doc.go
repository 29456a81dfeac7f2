// Package client is the action layer over the Groovy execution service.
//
// It exposes three operations:
//   - [Client.Submit]: POST {endpoint}/groovy/submit
//   - [Client.FetchStatus]: GET {endpoint}/groovy/status?id=ID
//   - [Client.SubmitAndAwaitResult]: submit, require success, then exactly one status query
//
// Submit and FetchStatus return whatever the service answers; interpreting
// status codes is left to the caller. SubmitAndAwaitResult is the only
// operation that judges responses, and it reports violations as
// [*AssertionError]. There is no polling loop and no retry: a submission may
// still be PENDING or IN_PROGRESS when SubmitAndAwaitResult returns.
package client
