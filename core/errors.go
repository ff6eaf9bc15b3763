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


package core

import "errors"

// Retrieval error taxonomy
var (
	// ErrLoad indicates no configured encoding could decode a source file.
	// Fatal to ingestion; never retried.
	ErrLoad = errors.New("load failed")

	// ErrIndexBuild indicates an embedding or persistence failure while
	// creating or rebuilding the index. Fatal; never retried.
	ErrIndexBuild = errors.New("index build failed")

	// ErrAdapter indicates a web search transport, timeout, status or parse
	// failure. It is recovered inside the web search adapter and never
	// propagated past it.
	ErrAdapter = errors.New("web search failed")
)

// Domain validation errors
var (
	// ErrInvalidPassage indicates a Passage failed validation.
	ErrInvalidPassage = errors.New("invalid passage")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidSource indicates an unknown Source value.
	ErrInvalidSource = errors.New("invalid source")

	// ErrUnsupportedMetric indicates a similarity metric other than cosine.
	ErrUnsupportedMetric = errors.New("unsupported similarity metric")
)
