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
	"context"
	"strings"

	"github.com/kraklabs/kge/pkg/patterns"
	"github.com/kraklabs/kge/pkg/store"
)

// LinkedReference is one code reference found in prose, together with its
// resolved entity (if any).
type LinkedReference struct {
	Ref      patterns.CodeRef
	Entity   *store.Entity
	Resolved bool
}

var codeEntityTypes = []store.EntityType{
	store.EntityClass, store.EntityInterface, store.EntityTypeAlias,
	store.EntityFunction, store.EntityMethod,
}

// LinkReferences scans text for code-like tokens and resolves each against
// db's entities in spec.md's fixed order: exact qualified_name, then file
// path, then class/interface/type name, then function/method name, then a
// general name search accepting only matches where one name contains the
// other. Unresolved references are reported (Resolved=false) but never
// linked to an arbitrary guess.
func LinkReferences(ctx context.Context, db *store.DB, projectID, text string) ([]LinkedReference, error) {
	var out []LinkedReference
	for _, ref := range patterns.CodeReferences(text) {
		ent, err := resolveOne(ctx, db, projectID, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, LinkedReference{Ref: ref, Entity: ent, Resolved: ent != nil})
	}
	return out, nil
}

func resolveOne(ctx context.Context, db *store.DB, projectID string, ref patterns.CodeRef) (*store.Entity, error) {
	name := strings.TrimSuffix(ref.Text, "()")

	if ent, ok := lookupNoError(ctx, db, projectID, store.EntityLookup{QualifiedName: ref.Text}); ok {
		return ent, nil
	}
	if ref.Kind == "path" {
		if ent, ok := lookupNoError(ctx, db, projectID, store.EntityLookup{QualifiedName: ref.Text, Type: store.EntityFile}); ok {
			return ent, nil
		}
		if ent, ok := lookupNoError(ctx, db, projectID, store.EntityLookup{Name: ref.Text, Type: store.EntityFile}); ok {
			return ent, nil
		}
	}
	for _, t := range []store.EntityType{store.EntityClass, store.EntityInterface, store.EntityTypeAlias} {
		if ent, ok := lookupNoError(ctx, db, projectID, store.EntityLookup{Name: name, Type: t}); ok {
			return ent, nil
		}
	}
	for _, t := range []store.EntityType{store.EntityFunction, store.EntityMethod} {
		if ent, ok := lookupNoError(ctx, db, projectID, store.EntityLookup{Name: name, Type: t}); ok {
			return ent, nil
		}
	}

	results, err := db.Search(ctx, projectID, name, store.SearchFilter{Limit: 10})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !isCodeEntity(r.Entity.Type) {
			continue
		}
		if strings.Contains(r.Entity.Name, name) || strings.Contains(name, r.Entity.Name) {
			ent := r.Entity
			return &ent, nil
		}
	}
	return nil, nil
}

func isCodeEntity(t store.EntityType) bool {
	for _, ct := range codeEntityTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// lookupNoError wraps GetEntity, collapsing a NotFound error (or any other
// error) into a plain "not found" signal so callers can try the next
// resolution step without threading storage errors through every step.
func lookupNoError(ctx context.Context, db *store.DB, projectID string, lookup store.EntityLookup) (*store.Entity, bool) {
	ent, err := db.GetEntity(ctx, projectID, lookup)
	if err != nil {
		return nil, false
	}
	return ent, true
}
