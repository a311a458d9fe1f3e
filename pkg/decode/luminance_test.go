package decode

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-scan/pkg/camera"
)

// plane returns a width x height plane where each pixel holds y*width+x.
func plane(width, height int) []byte {
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestNewLuminance_Crop(t *testing.T) {
	data := plane(6, 4)
	l, err := NewLuminance(data, 6, 4, camera.Rect{Left: 1, Top: 1, Right: 4, Bottom: 3})
	if err != nil {
		t.Fatal(err)
	}
	if l.Width() != 3 || l.Height() != 2 {
		t.Fatalf("got %dx%d, want 3x2", l.Width(), l.Height())
	}
	want := []byte{7, 8, 9, 13, 14, 15}
	for i, b := range l.Matrix() {
		if b != want[i] {
			t.Fatalf("matrix = %v, want %v", l.Matrix(), want)
		}
	}

	row := l.Row(1, nil)
	if string(row) != string([]byte{13, 14, 15}) {
		t.Errorf("row 1 = %v", row)
	}
	if l.Row(2, nil) != nil {
		t.Error("row past the end should be nil")
	}
}

func TestNewLuminance_IgnoresChroma(t *testing.T) {
	// NV21: Y plane followed by interleaved VU at half resolution.
	data := append(plane(4, 2), 0xAA, 0xBB, 0xCC, 0xDD)
	l, err := NewLuminance(data, 4, 2, camera.Rect{Left: 0, Top: 0, Right: 4, Bottom: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Matrix()) != 8 {
		t.Errorf("sample has %d bytes, want 8", len(l.Matrix()))
	}
}

func TestNewRotatedLuminance(t *testing.T) {
	// 3x2 frame:
	//   0 1 2
	//   3 4 5
	// rotated clockwise (2x3):
	//   3 0
	//   4 1
	//   5 2
	data := plane(3, 2)

	l, err := NewRotatedLuminance(data, 3, 2, camera.Rect{Left: 0, Top: 0, Right: 2, Bottom: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{3, 0, 4, 1, 5, 2}
	if string(l.Matrix()) != string(want) {
		t.Errorf("full rotation = %v, want %v", l.Matrix(), want)
	}

	l, err = NewRotatedLuminance(data, 3, 2, camera.Rect{Left: 1, Top: 1, Right: 2, Bottom: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(l.Matrix()) != string([]byte{1, 2}) {
		t.Errorf("partial rotation = %v, want [1 2]", l.Matrix())
	}
}

func TestSampleFrame_Orientation(t *testing.T) {
	// Landscape frame, portrait-shaped region that only fits after rotation.
	frame := camera.Frame{Data: plane(8, 4), Width: 8, Height: 4}

	l, err := SampleFrame(frame, camera.Rect{Left: 0, Top: 0, Right: 4, Bottom: 8})
	if err != nil {
		t.Fatalf("rotated region: %v", err)
	}
	if l.Width() != 4 || l.Height() != 8 {
		t.Errorf("got %dx%d, want 4x8", l.Width(), l.Height())
	}

	l, err = SampleFrame(frame, camera.Rect{Left: 2, Top: 1, Right: 6, Bottom: 3})
	if err != nil {
		t.Fatalf("direct region: %v", err)
	}
	if l.Matrix()[0] != 10 {
		t.Errorf("direct crop starts at %d, want 10", l.Matrix()[0])
	}
}

func TestSampleFrame_Errors(t *testing.T) {
	tests := []struct {
		name   string
		frame  camera.Frame
		region camera.Rect
		want   error
	}{
		{
			name:   "region outside both orientations",
			frame:  camera.Frame{Data: plane(8, 4), Width: 8, Height: 4},
			region: camera.Rect{Left: 0, Top: 0, Right: 9, Bottom: 9},
			want:   ErrRegionOutOfBounds,
		},
		{
			name:   "empty region",
			frame:  camera.Frame{Data: plane(8, 4), Width: 8, Height: 4},
			region: camera.Rect{Left: 2, Top: 2, Right: 2, Bottom: 3},
			want:   ErrRegionOutOfBounds,
		},
		{
			name:   "short buffer",
			frame:  camera.Frame{Data: make([]byte, 10), Width: 8, Height: 4},
			region: camera.Rect{Left: 0, Top: 0, Right: 2, Bottom: 2},
			want:   ErrShortFrame,
		},
		{
			name:   "no dimensions",
			frame:  camera.Frame{Data: make([]byte, 10)},
			region: camera.Rect{Left: 0, Top: 0, Right: 2, Bottom: 2},
			want:   ErrRegionOutOfBounds,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SampleFrame(tc.frame, tc.region)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLuminance_Image(t *testing.T) {
	l, err := NewLuminance(plane(4, 4), 4, 4, camera.Rect{Left: 1, Top: 1, Right: 3, Bottom: 3})
	if err != nil {
		t.Fatal(err)
	}
	img := l.Image()
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.GrayAt(1, 1).Y; got != 10 {
		t.Errorf("pixel (1,1) = %d, want 10", got)
	}
}
