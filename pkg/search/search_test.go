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

package search

import (
	"testing"

	"github.com/kraklabs/kge/pkg/store"
	"github.com/stretchr/testify/assert"
)

func TestFuse_ReciprocalRankFusion(t *testing.T) {
	tests := []struct {
		name     string
		rankings map[string][]SearchResult
		weights  map[string]float64
		want     map[string]float64
	}{
		{
			name: "single strategy scores by rank only",
			rankings: map[string][]SearchResult{
				StrategyKeyword: {
					{EntityID: "a", Score: 0.9, Source: StrategyKeyword},
					{EntityID: "b", Score: 0.5, Source: StrategyKeyword},
				},
			},
			weights: map[string]float64{StrategyKeyword: 1.0},
			want: map[string]float64{
				"a": 1.0 / 61,
				"b": 1.0 / 62,
			},
		},
		{
			name: "entity present in two strategies sums weighted contributions",
			rankings: map[string][]SearchResult{
				StrategyKeyword:  {{EntityID: "a"}, {EntityID: "b"}},
				StrategySemantic: {{EntityID: "b"}, {EntityID: "a"}},
			},
			weights: map[string]float64{StrategyKeyword: 1.0, StrategySemantic: 1.0},
			want: map[string]float64{
				"a": 1.0/61 + 1.0/62,
				"b": 1.0/62 + 1.0/61,
			},
		},
		{
			name: "strategy weight scales its contribution",
			rankings: map[string][]SearchResult{
				StrategyGraph: {{EntityID: "a"}},
			},
			weights: map[string]float64{StrategyGraph: 0.5},
			want: map[string]float64{
				"a": 0.5 * (1.0 / 61),
			},
		},
		{
			name: "zero-weight strategy contributes nothing",
			rankings: map[string][]SearchResult{
				StrategyKeyword: {{EntityID: "a"}},
				StrategyGraph:   {{EntityID: "a"}},
			},
			weights: map[string]float64{StrategyKeyword: 1.0, StrategyGraph: 0},
			want: map[string]float64{
				"a": 1.0 / 61,
			},
		},
		{
			name:     "no rankings produces no scores",
			rankings: map[string][]SearchResult{},
			weights:  defaultWeights,
			want:     map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fuse(tt.rankings, tt.weights)
			assert.InDeltaMapValues(t, tt.want, got, 1e-9)
		})
	}
}

func TestFuse_LowerRankAlwaysBeatsHigherRankSameStrategy(t *testing.T) {
	rankings := map[string][]SearchResult{
		StrategyKeyword: {
			{EntityID: "first"},
			{EntityID: "second"},
			{EntityID: "third"},
		},
	}
	scores := fuse(rankings, map[string]float64{StrategyKeyword: 1.0})
	assert.Greater(t, scores["first"], scores["second"])
	assert.Greater(t, scores["second"], scores["third"])
}

func TestFuse_MultiStrategyAgreementOutranksSingleStrategy(t *testing.T) {
	// "consensus" is ranked second by both strategies; "lonely" is ranked
	// first by keyword alone. RRF's point is that broad agreement across
	// strategies can outrank a single strategy's top pick.
	rankings := map[string][]SearchResult{
		StrategyKeyword:  {{EntityID: "lonely"}, {EntityID: "consensus"}},
		StrategySemantic: {{EntityID: "consensus"}, {EntityID: "other"}},
		StrategyGraph:    {{EntityID: "consensus"}, {EntityID: "other2"}},
	}
	scores := fuse(rankings, defaultWeights)
	assert.Greater(t, scores["consensus"], scores["lonely"])
}

func TestContainsType_MatchesAnyListedType(t *testing.T) {
	types := []store.EntityType{store.EntityFunction, store.EntityClass}
	assert.True(t, containsType(types, store.EntityClass))
	assert.False(t, containsType(types, store.EntityFile))
}
