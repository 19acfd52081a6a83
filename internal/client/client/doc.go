// Package client contains the client-side building blocks for Keepsake.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Ping,
//     EnsureIdentity, ResolveInvite, AppendEntry, UpdateProfile,
//     ExportArchive and Subscribe.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, attaches the session token to every call through
//     interceptors, and maps gRPC status codes back to the sentinel errors in
//     internal/common.
//  3. Subscription, the client end of the live entry feed: a channel of full
//     snapshots, a terminal Err and Cancel.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations), wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Errors returned by GRPCClient match the sentinels in internal/common with
// errors.Is (ErrValidation, ErrNotFound, ErrRevealLocked,
// ErrStoreUnavailable, ErrTokenExpired and so on).
package client
