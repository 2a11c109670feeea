// Package audit carries the engine's audit event model and the async
// dispatcher that decouples sinks from the request path.
package audit
