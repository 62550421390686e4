package augment

import (
	"testing"

	"onco-advisor-be/pkg/store"
)

func TestAugment(t *testing.T) {
	tests := []struct {
		name       string
		rawQuery   string
		cancerType string
		want       string
	}{
		{
			name:       "known cancer type is prepended",
			rawQuery:   "What drug improves survival?",
			cancerType: "pancreatic cancer",
			want:       "Patient has pancreatic cancer. What drug improves survival?",
		},
		{
			name:       "unknown passes through",
			rawQuery:   "What drug improves survival?",
			cancerType: store.AttrUnknown,
			want:       "What drug improves survival?",
		},
		{
			name:       "empty passes through",
			rawQuery:   "What drug improves survival?",
			cancerType: "",
			want:       "What drug improves survival?",
		},
		{
			name:       "empty query still gets prefix",
			rawQuery:   "",
			cancerType: "melanoma",
			want:       "Patient has melanoma. ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Augment(tt.rawQuery, tt.cancerType); got != tt.want {
				t.Errorf("Augment() = %q, want %q", got, tt.want)
			}
		})
	}
}
