package core

import (
	"errors"
	"testing"
)

func TestValidatePassage(t *testing.T) {
	tests := []struct {
		name    string
		passage *Passage
		wantErr error
	}{
		{
			name:    "valid untagged passage",
			passage: &Passage{Content: "hello"},
			wantErr: nil,
		},
		{
			name:    "valid web passage",
			passage: &Passage{Content: "hello", Source: SourceWeb, Rank: 3},
			wantErr: nil,
		},
		{
			name:    "nil passage",
			passage: nil,
			wantErr: ErrInvalidPassage,
		},
		{
			name:    "empty content",
			passage: &Passage{Content: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "unknown source",
			passage: &Passage{Content: "hello", Source: "ftp"},
			wantErr: ErrInvalidSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassage(tt.passage)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePassage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMetric(t *testing.T) {
	if err := ValidateMetric(MetricCosine); err != nil {
		t.Errorf("ValidateMetric(cosine) unexpected error: %v", err)
	}
	if err := ValidateMetric("l2"); !errors.Is(err, ErrUnsupportedMetric) {
		t.Errorf("ValidateMetric(l2) error = %v, want ErrUnsupportedMetric", err)
	}
}
