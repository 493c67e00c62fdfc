// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"context"

	"github.com/kraklabs/kge/pkg/store"
)

// ProjectMeta is an alias for the storage layer's per-project indexing
// state, re-exported here so ingestion callers don't need to import
// pkg/store directly just for this type.
type ProjectMeta = store.ProjectMeta

// GetProjectMeta retrieves the project's incremental-indexing state.
// Returns nil, nil if the project has no metadata yet.
func GetProjectMeta(ctx context.Context, db *store.DB, projectID string) (*ProjectMeta, error) {
	return db.GetProjectMeta(ctx, projectID)
}

// SetProjectMeta upserts the project's incremental-indexing state.
func SetProjectMeta(ctx context.Context, db *store.DB, meta *ProjectMeta) error {
	return db.SetProjectMeta(ctx, meta)
}

// GetFunctionIDsForFiles returns a map of file_path -> function entity ids
// for the given paths, used to locate stale children on re-ingest.
func GetFunctionIDsForFiles(ctx context.Context, db *store.DB, projectID string, filePaths []string) (map[string][]string, error) {
	return db.EntityIDsForFiles(ctx, projectID, store.EntityFunction, filePaths)
}

// GetTypeIDsForFiles returns a map of file_path -> type entity ids for the
// given paths.
func GetTypeIDsForFiles(ctx context.Context, db *store.DB, projectID string, filePaths []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, kind := range []store.EntityType{store.EntityTypeAlias, store.EntityClass, store.EntityInterface} {
		byFile, err := db.EntityIDsForFiles(ctx, projectID, kind, filePaths)
		if err != nil {
			return nil, err
		}
		for path, ids := range byFile {
			out[path] = append(out[path], ids...)
		}
	}
	return out, nil
}

// GetFileIDsForPaths returns a map of file_path -> file entity id.
func GetFileIDsForPaths(ctx context.Context, db *store.DB, projectID string, filePaths []string) (map[string]string, error) {
	byFile, err := db.EntityIDsForFiles(ctx, projectID, store.EntityFile, filePaths)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(byFile))
	for path, ids := range byFile {
		if len(ids) > 0 {
			out[path] = ids[0]
		}
	}
	return out, nil
}

// StoredCallsEdge represents a caller->callee CALLS relationship as
// stored in the graph.
type StoredCallsEdge struct {
	ID       string
	CallerID string
	CalleeID string
}

// GetCallsEdgesForFiles returns stored CALLS edges whose caller function
// is defined in one of filePaths. Used to clean up stale edges when
// files are deleted or modified.
func GetCallsEdgesForFiles(ctx context.Context, db *store.DB, projectID string, filePaths []string) ([]StoredCallsEdge, error) {
	callerIDsByFile, err := GetFunctionIDsForFiles(ctx, db, projectID, filePaths)
	if err != nil {
		return nil, err
	}

	var edges []StoredCallsEdge
	for _, callerIDs := range callerIDsByFile {
		for _, callerID := range callerIDs {
			rels, err := db.GetRelationshipsFor(ctx, callerID, store.DirectionOut)
			if err != nil {
				return nil, err
			}
			for _, r := range rels {
				if r.Relationship != store.RelCalls {
					continue
				}
				edges = append(edges, StoredCallsEdge{ID: r.ID, CallerID: r.SourceID, CalleeID: r.TargetID})
			}
		}
	}
	return edges, nil
}

// GetDefinesEdgesForFiles returns, for each file id in filePaths, the ids
// of its DEFINES relationships (file/scope -> symbol).
func GetDefinesEdgesForFiles(ctx context.Context, db *store.DB, projectID string, filePaths []string) (map[string][]string, error) {
	fileIDs, err := GetFileIDsForPaths(ctx, db, projectID, filePaths)
	if err != nil {
		return nil, err
	}

	byFileID := make(map[string][]string)
	for _, fileID := range fileIDs {
		rels, err := db.GetRelationshipsFor(ctx, fileID, store.DirectionOut)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if r.Relationship != store.RelDefines {
				continue
			}
			byFileID[fileID] = append(byFileID[fileID], r.ID)
		}
	}
	return byFileID, nil
}
