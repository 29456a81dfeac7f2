// Package auth decides who a request to the reference execution service
// runs as.
//
// A Chain of voters judges each request. A voter accepts, rejects or
// abstains, and the first vote that is not an abstention wins. The service
// puts PublicPaths ahead of the basic-auth voter, so health and metrics
// endpoints are answered anonymously while the Groovy API requires a
// configured user.
//
// Middleware stores the accepted Principal in the request context, where
// handlers use its owner to scope submissions.
package auth
