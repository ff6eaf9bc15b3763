// Copyright 2025 Poiesic Systems
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


// Package search fuses local index passages and web search passages into one
// bounded, ordered result list.
//
// An Engine retrieves local candidates from the embedding index and, in hybrid
// mode, web candidates from the search aggregator at the same time. The two
// candidate sets are tagged by origin, ranked, deduplicated and truncated.
//
// Ranking puts web passages ahead of local ones and orders web passages by the
// aggregator's rank. Ties fall back to content length. This is a heuristic
// stand-in for relevance, not a calibrated score.
//
// Web failures never fail a retrieval; the result simply has no web passages.
// A local index failure, or cancellation by the caller, fails the whole call
// and no partial result is returned.
package search
