// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"context"

	"github.com/kraklabs/kge/pkg/store"
)

// GetRequirements lists requirement entities extracted during document
// ingestion, optionally narrowed to one req_type ("must", "should",
// "could", "wont", or a pipeline's free-form requirement/feature/
// user-story/constraint tag).
func (e *Engine) GetRequirements(ctx context.Context, filter RequirementFilter) ([]Requirement, error) {
	entities, err := e.db.ListByType(ctx, e.projectID, store.EntityRequirement, filter.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]Requirement, 0, len(entities))
	for _, ent := range entities {
		reqType, _ := ent.Metadata["req_type"].(string)
		if filter.ReqType != "" && reqType != filter.ReqType {
			continue
		}
		out = append(out, Requirement{
			ID:          ent.ID,
			Description: ent.Content,
			ReqType:     reqType,
			File:        ent.FilePath,
		})
	}
	return out, nil
}
