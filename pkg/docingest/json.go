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

package docingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// JSONPipeline parses a JSON document's top-level object into component
// and variable children per the "Other formats" rule. A schema-free
// map[string]any decode is exactly what this needs; no third-party JSON
// library in the retrieved pack adds anything over encoding/json here.
type JSONPipeline struct{}

// Parse implements Pipeline.
func (JSONPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path

	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("docingest: parse json %s: %w", path, err)
	}

	children, relations := buildKeyValueChildren(docID, path, data)
	return &Document{
		ID: docID, Path: path, Title: filepath.Base(path), Format: "json",
		Children: children, Relations: relations,
	}, nil
}
