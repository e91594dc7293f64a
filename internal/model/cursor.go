// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// Cursor records how much of the remote log has been rendered locally.
// The zero value means nothing has been rendered yet.
type Cursor struct {
	LastSequence int    `json:"last_sequence"`
	LastVersion  int    `json:"last_version"`
	SessionGuid  string `json:"session_guid"`
}

// IsZero reports whether the cursor is at its initial position.
func (c Cursor) IsZero() bool {
	return c == Cursor{}
}

func (c Cursor) String() string {
	return fmt.Sprintf("seq=%d ver=%d guid=%q", c.LastSequence, c.LastVersion, c.SessionGuid)
}
