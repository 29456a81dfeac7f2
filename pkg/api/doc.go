// Package api defines the wire types of the Groovy execution service.
//
// The service exposes two endpoints:
//
//	POST {endpoint}/groovy/submit        body {"code": "..."}   -> {"id": "..."}
//	GET  {endpoint}/groovy/status?id=ID                          -> {"id", "status", "result"?}
//
// Both are protected by HTTP basic authentication, and a submission is only
// visible to the credential that created it.
//
// Core types:
//   - [Credential]: basic-auth principal
//   - [SubmitRequest] / [SubmitPayload]: submit endpoint body and reply
//   - [StatusPayload]: status endpoint reply
//   - [ExecutionStatus]: lifecycle stage of a submission
//   - [APIError]: structured error body returned on 4xx/5xx
//
// The package performs no I/O.
package api
