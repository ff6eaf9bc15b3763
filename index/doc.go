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


// Package index provides the persistent embedding index over document passages.
//
// An Index is either Empty or Populated. Opening an index whose store is
// absent or empty builds it from a PassageSource; opening a populated store
// loads it without calling the embedder. Query returns the nearest passages
// by cosine similarity, higher scores being closer.
//
// # Building
//
// Passages are embedded in fixed-size batches on a worker pool. Vectors are
// normalized to unit length before they are written, and the whole set is
// persisted in one Create call. A failed build leaves the index Empty.
//
// # Concurrency
//
// Queries take a read lock. Rebuild takes the write lock, so no query ever
// observes a half-built index. When a lock file is configured, builds are
// also serialized across processes sharing the same index directory.
//
// # Progress
//
// Long builds can report progress through the Progress interface:
//
//	tracker := index.NewProgressTracker(os.Stderr, 100)
//	idx, err := index.Open(ctx, store, embedder, source, index.WithProgress(tracker))
package index
