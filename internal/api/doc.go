// Package api provides the HTTP REST API and WebSocket event stream for
// ProjectHub.
//
// Routes live under /api/v1. Bearer tokens are resolved to the live account
// on every request, and route policies are attached in the router with
// s.require. Every error leaves through writeServiceError so each endpoint
// shares one error body.
//
// Lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
