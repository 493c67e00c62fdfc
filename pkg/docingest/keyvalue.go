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
	"sort"
)

// buildKeyValueChildren implements the "Other formats" rule shared by the
// YAML, JSON, and TOML pipelines: every top-level key becomes a component
// (mapping value) or variable (scalar/array value) entity under the
// document, with CONFIGURES candidacy left to the write path (which alone
// has access to the store to check for a same-named code entity).
// package.json is special-cased: "dependencies"/"devDependencies" entries
// become technology entities, and "scripts" entries become task entities.
func buildKeyValueChildren(docID, path string, data map[string]any) ([]ChildEntity, []Relation) {
	var children []ChildEntity
	var relations []Relation

	keys := sortedKeys(data)

	if filepath.Base(path) == "package.json" {
		for _, depsKey := range []string{"dependencies", "devDependencies"} {
			deps, _ := data[depsKey].(map[string]any)
			for _, name := range sortedKeys(deps) {
				version, _ := deps[name].(string)
				id := fmt.Sprintf("%s#technology-%s", docID, name)
				children = append(children, ChildEntity{
					ID: id, Type: "technology", Name: name, QualifiedName: id,
					Content: version, ParentID: docID,
					Metadata: map[string]any{"version": version, "dev": depsKey == "devDependencies"},
				})
				relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "CONTAINS"})
			}
		}
		if scripts, ok := data["scripts"].(map[string]any); ok {
			for _, name := range sortedKeys(scripts) {
				cmd, _ := scripts[name].(string)
				id := fmt.Sprintf("%s#task-%s", docID, name)
				children = append(children, ChildEntity{
					ID: id, Type: "task", Name: name, QualifiedName: id,
					Content: cmd, ParentID: docID,
				})
				relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "CONTAINS"})
			}
		}
		return children, relations
	}

	for _, key := range keys {
		value := data[key]
		id := fmt.Sprintf("%s#%s", docID, key)
		child := ChildEntity{ID: id, Name: key, QualifiedName: id, ParentID: docID}
		if m, ok := value.(map[string]any); ok {
			child.Type = "component"
			child.Metadata = map[string]any{"key_count": len(m)}
		} else {
			child.Type = "variable"
			child.Content = fmt.Sprintf("%v", value)
		}
		children = append(children, child)
		relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "CONTAINS"})
	}

	return children, relations
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
