// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import "context"

// RecordFeedback marks a previously logged query (the LogID a Search or
// GetContext call returned) as useful or not useful, for later retrieval
// quality analysis.
func (e *Engine) RecordFeedback(ctx context.Context, logID string, useful bool) error {
	return e.db.RecordFeedback(ctx, logID, useful)
}
