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

// Package store is the persistence layer: entities, relationships, stored
// embeddings, and conversation memory for one project, backed by a single
// SQLite file via modernc.org/sqlite (no CGO).
package store

import "time"

// EntityType is the closed set of entity kinds the graph recognizes.
type EntityType string

const (
	EntityFile        EntityType = "file"
	EntityModule      EntityType = "module"
	EntityClass       EntityType = "class"
	EntityInterface   EntityType = "interface"
	EntityTypeAlias   EntityType = "type"
	EntityFunction    EntityType = "function"
	EntityMethod      EntityType = "method"
	EntityVariable    EntityType = "variable"
	EntityDecision    EntityType = "decision"
	EntityDocument    EntityType = "document"
	EntitySection     EntityType = "section"
	EntityRequirement EntityType = "requirement"
	EntityTechnology  EntityType = "technology"
	EntityTask        EntityType = "task"
	EntityComponent   EntityType = "component"
	EntityConcept     EntityType = "concept"
	EntityPattern     EntityType = "pattern"
	EntitySession     EntityType = "session"
	EntityMessage     EntityType = "message"
)

// ValidEntityTypes reports whether t is a recognized entity type.
func ValidEntityTypes(t EntityType) bool {
	switch t {
	case EntityFile, EntityModule, EntityClass, EntityInterface, EntityTypeAlias,
		EntityFunction, EntityMethod, EntityVariable, EntityDecision, EntityDocument,
		EntitySection, EntityRequirement, EntityTechnology, EntityTask, EntityComponent,
		EntityConcept, EntityPattern, EntitySession, EntityMessage:
		return true
	}
	return false
}

// RelationshipType is the closed set of directed edge kinds.
type RelationshipType string

const (
	RelContains   RelationshipType = "CONTAINS"
	RelImports    RelationshipType = "IMPORTS"
	RelDefines    RelationshipType = "DEFINES"
	RelCalls      RelationshipType = "CALLS"
	RelMentions   RelationshipType = "MENTIONS"
	RelDocuments  RelationshipType = "DOCUMENTS"
	RelRelatesTo  RelationshipType = "RELATES_TO"
	RelDependsOn  RelationshipType = "DEPENDS_ON"
	RelConfigures RelationshipType = "CONFIGURES"
	RelImplements RelationshipType = "IMPLEMENTS"
	RelReferences RelationshipType = "REFERENCES"
)

// ValidRelationshipTypes reports whether r is a recognized relationship type.
func ValidRelationshipTypes(r RelationshipType) bool {
	switch r {
	case RelContains, RelImports, RelDefines, RelCalls, RelMentions, RelDocuments,
		RelRelatesTo, RelDependsOn, RelConfigures, RelImplements, RelReferences:
		return true
	}
	return false
}

// Entity is an addressable node in the project graph.
type Entity struct {
	ID            string
	ProjectID     string
	Type          EntityType
	Name          string
	QualifiedName string
	Content       string
	Summary       string
	FilePath      string
	StartLine     int
	EndLine       int
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Relationship is a directed, typed edge between two entities.
type Relationship struct {
	ID           string
	ProjectID    string
	SourceID     string
	TargetID     string
	Relationship RelationshipType
	Weight       float64
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Direction selects which side of a relationship to traverse from.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// StoredEmbedding is one unit-normalized vector for an entity under a
// named embedding model. There is at most one row per (entity_id, model).
type StoredEmbedding struct {
	EntityID  string
	Model     string
	Vector    []float32
	CreatedAt time.Time
}

// SessionState is the closed set of conversation session lifecycle states.
type SessionState string

const (
	SessionActive     SessionState = "active"
	SessionArchived   SessionState = "archived"
	SessionSummarized SessionState = "summarized"
)

// Session is a conversation thread scoped to a project.
type Session struct {
	ID        string
	ProjectID string
	State     SessionState
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn in a session, FIFO-ordered by Seq.
type Message struct {
	ID        string
	SessionID string
	Seq       int64
	Role      string
	Content   string
	CreatedAt time.Time
}

// Decision is a recorded decision surfaced during a conversation.
type Decision struct {
	ID        string
	SessionID string
	Content   string
	CreatedAt time.Time
}

// QueryLog records one retrieval call for later cost/relevance analysis
// and feedback collection. ItemTypes and Strategies are stored as
// comma-joined strings; TokensSaved and CostSaved are derived at write
// time from the estimated-full vs. actual figures.
type QueryLog struct {
	ID                 string
	ProjectID          string
	RawQuery           string
	Intent             string
	TokensRetrieved    int
	TokensEstimateFull int
	TokensSaved        int
	CostActual         float64
	CostEstimateFull   float64
	CostSaved          float64
	RelevanceScore     float64
	ItemCount          int
	ItemTypes          []string
	Strategies         []string
	WasUseful          *bool
	CreatedAt          time.Time
}

// SearchFilter narrows a text or vector search.
type SearchFilter struct {
	Type     EntityType
	Limit    int
	MinScore float64
}

// SearchResult pairs an entity with its match score and the field the
// match was found in, used to rank by locality (name > qualified_name >
// summary > content).
type SearchResult struct {
	Entity Entity
	Score  float64
	Field  string
}
