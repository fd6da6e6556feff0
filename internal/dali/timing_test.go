package dali

import (
	"testing"
	"time"
)

func TestClassifyDefaults(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		d    time.Duration
		want Width
	}{
		{"zero", 0, WidthInvalid},
		{"below half window", 349 * time.Microsecond, WidthInvalid},
		{"half lower bound", 350 * time.Microsecond, WidthHalf},
		{"nominal TE", 417 * time.Microsecond, WidthHalf},
		{"just inside half window", 489 * time.Microsecond, WidthHalf},
		{"half upper bound", 490 * time.Microsecond, WidthInvalid},
		{"between windows", 600 * time.Microsecond, WidthInvalid},
		{"full lower bound", 760 * time.Microsecond, WidthInvalid},
		{"just inside full window", 761 * time.Microsecond, WidthFull},
		{"nominal 2TE", 834 * time.Microsecond, WidthFull},
		{"just below full upper bound", 899 * time.Microsecond, WidthFull},
		{"full upper bound", 900 * time.Microsecond, WidthInvalid},
		{"stop hold", 1668 * time.Microsecond, WidthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.d); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestClassifyCustomWindows(t *testing.T) {
	c := Classifier{
		HalfMin: 100 * time.Microsecond,
		HalfMax: 200 * time.Microsecond,
		FullMin: 300 * time.Microsecond,
		FullMax: 400 * time.Microsecond,
	}

	if got := c.Classify(150 * time.Microsecond); got != WidthHalf {
		t.Errorf("Classify(150us) = %v, want half", got)
	}
	if got := c.Classify(350 * time.Microsecond); got != WidthFull {
		t.Errorf("Classify(350us) = %v, want full", got)
	}
	if got := c.Classify(250 * time.Microsecond); got != WidthInvalid {
		t.Errorf("Classify(250us) = %v, want invalid", got)
	}
}

func TestWidthString(t *testing.T) {
	if WidthHalf.String() != "half" || WidthFull.String() != "full" || WidthInvalid.String() != "invalid" {
		t.Errorf("unexpected Width strings: %v %v %v", WidthHalf, WidthFull, WidthInvalid)
	}
}
