// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines whether an indeterminate spinner should be
// shown while a long-running index operation is in flight.
type ProgressConfig struct {
	// Enabled is false when --json is set or stderr is not a TTY (piped
	// output, CI environments).
	Enabled bool
}

// NewProgressConfig derives a ProgressConfig from the index command's
// --json flag and a TTY check on stderr.
func NewProgressConfig(jsonOut bool) ProgressConfig {
	return ProgressConfig{Enabled: !jsonOut && isatty.IsTerminal(os.Stderr.Fd())}
}

// NewSpinner creates an indeterminate progress spinner for indexing,
// whose total entity count isn't known until the run completes. Returns
// nil if progress is disabled, so callers must nil-check the result before
// calling methods on it (animateSpinner does).
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
