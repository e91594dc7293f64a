// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package status provides the process-wide observable UI state.
//
// Each field has a single writer: the sync engine owns Connected and
// Paused, the recording controller owns Recording, and Text is the latest
// user-facing status line. Any number of readers may take snapshots or
// subscribe to changes.
//
// # Usage
//
//	st := status.New()
//	unsubscribe := st.Subscribe(func(s status.Snapshot) {
//	    fmt.Println("connected:", s.Connected)
//	})
//	defer unsubscribe()
package status
