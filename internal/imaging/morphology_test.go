package imaging

import (
	"errors"
	"testing"

	"github.com/wjojarth123/uicheck/internal/apperr"
)

func TestClose_FillsSmallGap(t *testing.T) {
	// A 3-pixel-tall bar with a one-column gap at x=15.
	m := NewEdgeMap(40, 20)
	for y := 9; y <= 11; y++ {
		for x := 5; x < 30; x++ {
			if x != 15 {
				m.Set(x, y, true)
			}
		}
	}

	closed, err := Close(m, 5)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !closed.At(15, 10) {
		t.Error("closing should bridge a one-pixel gap")
	}
	if closed.At(35, 10) || closed.At(20, 2) {
		t.Error("closing should not add pixels far from the bar")
	}
}

func TestClose_Extensive(t *testing.T) {
	m := NewEdgeMap(30, 30)
	m.Set(0, 0, true)
	m.Set(15, 15, true)
	m.Set(29, 29, true)

	closed, err := Close(m, 5)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for i, v := range m.Pix {
		if v && !closed.Pix[i] {
			t.Errorf("closing removed input edge at index %d", i)
		}
	}
}

func TestDilate_GrowsPixel(t *testing.T) {
	m := NewEdgeMap(11, 11)
	m.Set(5, 5, true)

	out, err := Dilate(m, 3, 1)
	if err != nil {
		t.Fatalf("Dilate failed: %v", err)
	}
	for _, p := range [][2]int{{5, 5}, {4, 5}, {6, 5}, {5, 4}, {5, 6}} {
		if !out.At(p[0], p[1]) {
			t.Errorf("dilation should cover (%d,%d)", p[0], p[1])
		}
	}
	if out.At(8, 5) || out.At(5, 2) {
		t.Error("one 3-wide pass should not reach three pixels away")
	}
	if m.Count() != 1 {
		t.Error("Dilate must not modify its input")
	}

	twice, _ := Dilate(m, 3, 2)
	if !twice.At(7, 5) {
		t.Error("two passes should reach two pixels away")
	}
}

func TestErode_RemovesIsolatedPixel(t *testing.T) {
	m := NewEdgeMap(11, 11)
	m.Set(5, 5, true)

	out, err := Erode(m, 3)
	if err != nil {
		t.Fatalf("Erode failed: %v", err)
	}
	if out.Count() != 0 {
		t.Errorf("isolated pixel should be eroded, %d remain", out.Count())
	}
}

func TestEnhance(t *testing.T) {
	m := NewEdgeMap(20, 20)
	m.Set(10, 10, true)

	out, err := Enhance(m, EnhanceOptions{CloseKernel: 5, DilateKernel: 3, DilateIterations: 0})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if !out.At(10, 10) {
		t.Error("enhance without dilation should keep the input edge")
	}

	out, err = Enhance(m, DefaultEnhanceOptions())
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if !out.At(11, 10) {
		t.Error("default enhance should dilate")
	}
}

func TestMorphology_InvalidKernel(t *testing.T) {
	m := NewEdgeMap(5, 5)

	for _, k := range []int{0, -3, 4} {
		if _, err := Close(m, k); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Close(%d): expected ErrInvalidInput, got %v", k, err)
		}
		if _, err := Dilate(m, k, 1); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Dilate(%d): expected ErrInvalidInput, got %v", k, err)
		}
	}
	if _, err := Enhance(m, EnhanceOptions{CloseKernel: 5, DilateKernel: 3, DilateIterations: -1}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("negative iterations: expected ErrInvalidInput, got %v", err)
	}
	if _, err := Enhance(nil, DefaultEnhanceOptions()); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("nil map: expected ErrInvalidInput, got %v", err)
	}
}

func TestClose_IsDilateThenErode(t *testing.T) {
	m := NewEdgeMap(30, 20)
	for x := 4; x < 26; x += 3 {
		m.Set(x, 10, true)
	}

	dilated, _ := Dilate(m, 3, 1)
	want, _ := Erode(dilated, 3)
	got, err := Close(m, 3)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for i, v := range want.Pix {
		if v && !got.Pix[i] {
			t.Errorf("closing lost pixel %d of dilate-then-erode", i)
		}
	}
	if !got.At(5, 10) {
		t.Error("closing should bridge the two-pixel gaps between dots")
	}
}
