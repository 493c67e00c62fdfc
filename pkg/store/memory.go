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

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateSession starts a new active conversation session for projectID.
func (d *DB) CreateSession(ctx context.Context, projectID string) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{ID: uuid.NewString(), ProjectID: projectID, State: SessionActive, CreatedAt: now, UpdatedAt: now}
	err := d.write(ctx, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO sessions (id, project_id, state, summary, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, s.ProjectID, string(s.State), s.Summary, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return nil, Storage(s.ID, "create session", err)
	}
	return s, nil
}

// GetSession loads a session by id.
func (d *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		s                    Session
		state, created, upd  string
		summary              sql.NullString
	)
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT id, project_id, state, summary, created_at, updated_at FROM sessions WHERE id = ?`, id)
		return row.Scan(&s.ID, &s.ProjectID, &state, &summary, &created, &upd)
	})
	if err == sql.ErrNoRows {
		return nil, NotFound(id, "session not found")
	}
	if err != nil {
		return nil, Storage(id, "get session", err)
	}
	s.State = SessionState(state)
	s.Summary = summary.String
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, upd)
	return &s, nil
}

// SetSessionState transitions a session's lifecycle state and, when
// summary is non-empty, stores it (used on the active->summarized edge).
func (d *DB) SetSessionState(ctx context.Context, id string, state SessionState, summary string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return d.write(ctx, func(ctx context.Context, q querier) error {
		var res sql.Result
		var err error
		if summary != "" {
			res, err = q.ExecContext(ctx, `UPDATE sessions SET state = ?, summary = ?, updated_at = ? WHERE id = ?`,
				string(state), summary, now, id)
		} else {
			res, err = q.ExecContext(ctx, `UPDATE sessions SET state = ?, updated_at = ? WHERE id = ?`,
				string(state), now, id)
		}
		if err != nil {
			return Storage(id, "set session state", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFound(id, "session not found")
		}
		return nil
	})
}

// AppendMessage appends a message to the end of a session's transcript,
// assigning it the next FIFO sequence number.
func (d *DB) AppendMessage(ctx context.Context, sessionID, role, content string) (*Message, error) {
	now := time.Now().UTC()
	m := &Message{ID: uuid.NewString(), SessionID: sessionID, Role: role, Content: content, CreatedAt: now}

	err := d.write(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`, sessionID)
		if err := row.Scan(&m.Seq); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO messages (id, session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.SessionID, m.Seq, m.Role, m.Content, now.Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return nil, Storage(sessionID, "append message", err)
	}
	return m, nil
}

// ListMessages returns a session's messages in FIFO order.
func (d *DB) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, session_id, seq, role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq ASC`,
			sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m Message
			var created string
			if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Role, &m.Content, &created); err != nil {
				return err
			}
			m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(sessionID, "list messages", err)
	}
	return out, nil
}

// RecordDecision appends a decision surfaced during a session.
func (d *DB) RecordDecision(ctx context.Context, sessionID, content string) (*Decision, error) {
	now := time.Now().UTC()
	dec := &Decision{ID: uuid.NewString(), SessionID: sessionID, Content: content, CreatedAt: now}
	err := d.write(ctx, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO decisions (id, session_id, content, created_at) VALUES (?, ?, ?, ?)`,
			dec.ID, dec.SessionID, dec.Content, now.Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return nil, Storage(sessionID, "record decision", err)
	}
	return dec, nil
}

// ListDecisions returns a session's decisions in creation order.
func (d *DB) ListDecisions(ctx context.Context, sessionID string) ([]Decision, error) {
	var out []Decision
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, session_id, content, created_at FROM decisions WHERE session_id = ? ORDER BY created_at ASC`,
			sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var dec Decision
			var created string
			if err := rows.Scan(&dec.ID, &dec.SessionID, &dec.Content, &created); err != nil {
				return err
			}
			dec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
			out = append(out, dec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(sessionID, "list decisions", err)
	}
	return out, nil
}

// LogQuery records a retrieval call for later cost/relevance analysis and
// feedback collection, returning the assigned log id.
func (d *DB) LogQuery(ctx context.Context, log QueryLog) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tokensSaved := log.TokensEstimateFull - log.TokensRetrieved
	costSaved := log.CostEstimateFull - log.CostActual
	err := d.write(ctx, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO query_logs (
				id, project_id, raw_query, intent,
				tokens_retrieved, tokens_estimate_full, tokens_saved,
				cost_actual, cost_estimate_full, cost_saved,
				relevance_score, item_count, item_types, strategies,
				was_useful, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, log.ProjectID, log.RawQuery, log.Intent,
			log.TokensRetrieved, log.TokensEstimateFull, tokensSaved,
			log.CostActual, log.CostEstimateFull, costSaved,
			log.RelevanceScore, log.ItemCount, strings.Join(log.ItemTypes, ","), strings.Join(log.Strategies, ","),
			nil, now)
		return err
	})
	if err != nil {
		return "", Storage(id, "log query", err)
	}
	return id, nil
}

// GetQueryLog loads a previously recorded query log by id.
func (d *DB) GetQueryLog(ctx context.Context, id string) (*QueryLog, error) {
	var (
		log                        QueryLog
		itemTypes, strategies      string
		wasUseful                  sql.NullInt64
		created                    string
	)
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT id, project_id, raw_query, intent,
				tokens_retrieved, tokens_estimate_full, tokens_saved,
				cost_actual, cost_estimate_full, cost_saved,
				relevance_score, item_count, item_types, strategies,
				was_useful, created_at
			 FROM query_logs WHERE id = ?`, id)
		return row.Scan(
			&log.ID, &log.ProjectID, &log.RawQuery, &log.Intent,
			&log.TokensRetrieved, &log.TokensEstimateFull, &log.TokensSaved,
			&log.CostActual, &log.CostEstimateFull, &log.CostSaved,
			&log.RelevanceScore, &log.ItemCount, &itemTypes, &strategies,
			&wasUseful, &created)
	})
	if err == sql.ErrNoRows {
		return nil, NotFound(id, "query log not found")
	}
	if err != nil {
		return nil, Storage(id, "get query log", err)
	}
	if itemTypes != "" {
		log.ItemTypes = strings.Split(itemTypes, ",")
	}
	if strategies != "" {
		log.Strategies = strings.Split(strategies, ",")
	}
	if wasUseful.Valid {
		b := wasUseful.Int64 != 0
		log.WasUseful = &b
	}
	log.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &log, nil
}

// RecordFeedback marks a previously logged query as useful or not useful.
func (d *DB) RecordFeedback(ctx context.Context, id string, useful bool) error {
	return d.write(ctx, func(ctx context.Context, q querier) error {
		res, err := q.ExecContext(ctx, `UPDATE query_logs SET was_useful = ? WHERE id = ?`, useful, id)
		if err != nil {
			return Storage(id, "record feedback", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFound(id, "query log not found")
		}
		return nil
	})
}
