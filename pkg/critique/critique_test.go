// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package critique

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_UnsupportedBacktickReferenceFails(t *testing.T) {
	sources := []Source{{ID: "e1", Text: "UserService handles login and session management."}}
	draft := "`PaymentService` handles payments."

	result, err := Run(context.Background(), draft, "who handles payments?", sources, Options{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, result.Passed)

	found := false
	for _, iss := range result.Issues {
		if iss.Type == IssueUnsupported {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRun_EmptyDraftIsIncompleteHigh(t *testing.T) {
	result, err := Run(context.Background(), "", "query", nil, Options{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, SeverityHigh, result.Issues[0].Severity)
}

func TestRun_PassesWhenGrounded(t *testing.T) {
	sources := []Source{{ID: "e1", Text: "The UserService validates credentials and issues session tokens."}}
	draft := "The UserService validates credentials and issues session tokens for each login."

	result, err := Run(context.Background(), draft, "how does login work", sources, Options{}, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestRun_RevisionLoopStopsAtMaxIterations(t *testing.T) {
	calls := 0
	revise := func(ctx context.Context, draft string, result Result) (string, error) {
		calls++
		return "`StillUnsupported` reference.", nil
	}

	result, err := Run(context.Background(), "`StillUnsupported` reference.", "q", nil, Options{MaxIterations: 2}, revise, nil)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, result.Iterations)
}

func TestRun_RevisionLoopStopsOnPass(t *testing.T) {
	sources := []Source{{ID: "e1", Text: "OrderService processes orders end to end."}}
	calls := 0
	revise := func(ctx context.Context, draft string, result Result) (string, error) {
		calls++
		return "The OrderService processes orders end to end.", nil
	}

	result, err := Run(context.Background(), "`MissingService` handles it.", "q", sources, Options{MaxIterations: 3}, revise, nil)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 1, calls)
}

func TestRun_TrackClaimsClassifiesOpinion(t *testing.T) {
	sources := []Source{{ID: "e1", Text: "The cache uses an LRU eviction policy."}}
	draft := "The cache uses an LRU eviction policy. I think this could be improved."

	result, err := Run(context.Background(), draft, "q", sources, Options{TrackClaims: true}, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Claims)

	var sawOpinion bool
	for _, c := range result.Claims {
		if c.Kind == ClaimOpinion {
			sawOpinion = true
			assert.True(t, c.Supported)
		}
	}
	assert.True(t, sawOpinion)
}
