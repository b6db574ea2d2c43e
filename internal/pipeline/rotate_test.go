package pipeline

import (
	"image"
	"testing"
)

func TestRotate(t *testing.T) {
	tests := []struct {
		angle  int
		size   image.Point
		marker image.Point
	}{
		{0, image.Pt(4, 2), image.Pt(1, 0)},
		{360, image.Pt(4, 2), image.Pt(1, 0)},
		{90, image.Pt(2, 4), image.Pt(0, 2)},
		{-270, image.Pt(2, 4), image.Pt(0, 2)},
		{180, image.Pt(4, 2), image.Pt(2, 1)},
		{270, image.Pt(2, 4), image.Pt(1, 1)},
		{-90, image.Pt(2, 4), image.Pt(1, 1)},
	}

	for _, tt := range tests {
		out, err := rotate(markerImage(), tt.angle)
		if err != nil {
			t.Fatalf("rotate %d: %v", tt.angle, err)
		}
		if got := out.Bounds().Size(); got != tt.size {
			t.Errorf("rotate %d: size %v, want %v", tt.angle, got, tt.size)
			continue
		}
		if got := findMarker(t, out); got != tt.marker {
			t.Errorf("rotate %d: marker at %v, want %v", tt.angle, got, tt.marker)
		}
	}
}

func TestRotate_RejectsNonQuarterTurns(t *testing.T) {
	for _, angle := range []int{45, -30, 91} {
		if _, err := rotate(markerImage(), angle); err == nil {
			t.Errorf("rotate %d: expected error", angle)
		}
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		angle int
		want  int
	}{
		{0, 0},
		{90, 90},
		{-90, 270},
		{450, 90},
		{-720, 0},
	}
	for _, tt := range tests {
		got, err := NormalizeRotation(tt.angle)
		if err != nil {
			t.Fatalf("NormalizeRotation(%d): %v", tt.angle, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.angle, got, tt.want)
		}
	}
	if _, err := NormalizeRotation(45); err == nil {
		t.Error("expected error for 45 degrees")
	}
}
