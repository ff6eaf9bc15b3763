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


// Package storage provides the storage abstraction for the embedding index.
//
// The index persists IndexEntry records (a passage plus its embedding vector)
// together with the similarity metric the index was built with, so a later
// Load reconstructs the same metric that Create used.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage.IndexStore
// interface so the index never couples to BadgerDB specifics:
//
//	store, err := badger.NewIndexStore(backend)  // returns storage.IndexStore
//
// # Lifecycle
//
// A store starts out absent (no directory) or empty. Create writes all entries
// in one pass and records the metric. Clear discards everything and is the
// only way entries are ever removed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent readers. Writers (Create,
// Clear) are serialized by the caller.
package storage
