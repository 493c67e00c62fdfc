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

package ingestion

import "fmt"

// ValidateEntities checks referential consistency of a parse batch before
// it is written to storage: every DEFINES and CALLS edge must point at an
// id that is actually present in the batch, and ids within each entity
// kind must be unique. Catching this here turns a bad foreign key into a
// precise error instead of a silent constraint failure deep in the store.
func ValidateEntities(files []FileEntity, functions []FunctionEntity, defines []DefinesEdge, calls []CallsEdge) error {
	fileIDs := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dup := fileIDs[f.ID]; dup {
			return fmt.Errorf("duplicate file id: %s (path %s)", f.ID, f.Path)
		}
		fileIDs[f.ID] = struct{}{}
	}

	functionIDs := make(map[string]struct{}, len(functions))
	for _, fn := range functions {
		if _, dup := functionIDs[fn.ID]; dup {
			return fmt.Errorf("duplicate function id: %s (%s in %s)", fn.ID, fn.Name, fn.FilePath)
		}
		functionIDs[fn.ID] = struct{}{}
	}

	for _, d := range defines {
		if _, ok := fileIDs[d.FileID]; !ok {
			return fmt.Errorf("defines edge references unknown file id: %s", d.FileID)
		}
		if _, ok := functionIDs[d.FunctionID]; !ok {
			return fmt.Errorf("defines edge references unknown function id: %s", d.FunctionID)
		}
	}

	for _, c := range calls {
		if _, ok := functionIDs[c.CallerID]; !ok {
			return fmt.Errorf("calls edge references unknown caller id: %s", c.CallerID)
		}
		if _, ok := functionIDs[c.CalleeID]; !ok {
			return fmt.Errorf("calls edge references unknown callee id: %s", c.CalleeID)
		}
		if c.CallerID == c.CalleeID {
			return fmt.Errorf("calls edge is a self-loop: %s", c.CallerID)
		}
	}

	return nil
}
