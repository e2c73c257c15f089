// Package api provides the management HTTP API and WebSocket event stream
// for the WiZ platform.
//
// It exposes the accessory cache and live bindings held by the platform
// controller, lets an operator remove a stale accessory, and relays
// accessory lifecycle events published on MQTT to WebSocket subscribers.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// When security.jwt.secret is set every route except /api/v1/health requires
// a bearer token issued by IssueToken.
package api
