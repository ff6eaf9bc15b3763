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

import "fmt"

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Source, if set, must be local or web
//
// NOT validated (populated at query time):
//   - Score
//   - Rank (0 is valid for passages without an aggregator ordinal)
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if p.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}

	if p.Source != "" {
		if err := ValidateSource(p.Source); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPassage, err)
		}
	}

	return nil
}

// ValidateSource validates that a Source has a known value.
func ValidateSource(s Source) error {
	if s != SourceLocal && s != SourceWeb {
		return fmt.Errorf("%w: value %q", ErrInvalidSource, s)
	}
	return nil
}

// ValidateMetric validates that a Metric is supported.
func ValidateMetric(m Metric) error {
	if m != MetricCosine {
		return fmt.Errorf("%w: %q", ErrUnsupportedMetric, m)
	}
	return nil
}
