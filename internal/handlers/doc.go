// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package handlers maps log entry type tags to rendering handlers.
//
// Handlers are registered once at startup. Lookup of an unknown tag
// resolves to the registry's fallback handler, and a handler that panics
// or renders nothing is replaced by the fallback at render time, so an
// entry is never silently discarded.
//
// # Usage
//
//	reg := handlers.NewRegistry(nil)
//	reg.Register("response", handlers.HandlerFunc(renderResponse))
//	reg.Dispatch(transcript, entry)
package handlers
