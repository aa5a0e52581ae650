// Package logging builds the slog logger shared by every ProjectHub
// component.
//
// Output is JSON unless logging.format is "text". Each entry carries the
// service name and build version. Components derive their own logger with
// With("component", name).
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("account registered", "account_id", id)
//
// Email addresses may appear in entries. Secrets, bearer tokens and
// WebSocket tickets must not.
package logging
