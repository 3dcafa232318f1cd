// Package reqctx carries request-scoped metadata from the HTTP layer into
// services.
//
// Keys are private types; access goes through the typed helpers. Services
// should log through Logger(ctx) so every line carries the request id of the
// booking or webhook that caused it.
package reqctx
