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

import "testing"

func TestBatcher_Chunk_Empty(t *testing.T) {
	b := NewBatcher(10)
	if chunks := b.Chunk(0); chunks != nil {
		t.Errorf("expected nil chunks for total=0, got %v", chunks)
	}
}

func TestBatcher_Chunk_ExactMultiple(t *testing.T) {
	b := NewBatcher(10)
	chunks := b.Chunk(30)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	want := []Range{{0, 10}, {10, 20}, {20, 30}}
	for i, r := range chunks {
		if r != want[i] {
			t.Errorf("chunk %d: expected %v, got %v", i, want[i], r)
		}
	}
}

func TestBatcher_Chunk_RemainderBatch(t *testing.T) {
	b := NewBatcher(10)
	chunks := b.Chunk(25)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if last := chunks[len(chunks)-1]; last != (Range{20, 25}) {
		t.Errorf("expected final chunk {20,25}, got %v", last)
	}
}

func TestBatcher_Chunk_SmallerThanTarget(t *testing.T) {
	b := NewBatcher(1000)
	chunks := b.Chunk(5)
	if len(chunks) != 1 || chunks[0] != (Range{0, 5}) {
		t.Fatalf("expected single chunk {0,5}, got %v", chunks)
	}
}

func TestNewBatcher_NonPositiveFallsBack(t *testing.T) {
	b := NewBatcher(0)
	if b.targetSize != 1000 {
		t.Errorf("expected fallback targetSize 1000, got %d", b.targetSize)
	}
}
