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


package search

import "errors"

var (
	// ErrLocalSearcherRequired is returned when no local index is provided.
	ErrLocalSearcherRequired = errors.New("local searcher required")

	// ErrWebSearcherRequired is returned when hybrid mode has no web searcher.
	ErrWebSearcherRequired = errors.New("web searcher required for hybrid mode")

	// ErrLocalRetrieval wraps failures of the local index during retrieval.
	ErrLocalRetrieval = errors.New("local retrieval failed")

	// ErrInvalidConfig is returned for out-of-range engine settings.
	ErrInvalidConfig = errors.New("invalid fusion config")

	// ErrUnknownMode is returned when parsing an unrecognized mode name.
	ErrUnknownMode = errors.New("unknown retrieval mode")
)
