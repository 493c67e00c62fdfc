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
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TOMLPipeline parses a TOML document's top-level table into component and
// variable children per the "Other formats" rule.
type TOMLPipeline struct{}

// Parse implements Pipeline.
func (TOMLPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path

	var data map[string]any
	if err := toml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("docingest: parse toml %s: %w", path, err)
	}

	children, relations := buildKeyValueChildren(docID, path, data)
	return &Document{
		ID: docID, Path: path, Title: filepath.Base(path), Format: "toml",
		Children: children, Relations: relations,
	}, nil
}
