package rotate

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/docketpdf/docket/internal/ocr"
)

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 20, 10))
}

// scripted returns a corrector whose engine reports a fixed score per
// rotation via a score function that reads the rotation hint back out of
// the synthetic text.
func scripted(scores map[int]float64) *Corrector {
	eng := ocr.NewMockEngine()
	for r := range scores {
		eng.ResultsByRotation[r] = ocr.Result{Text: marker(r)}
	}
	return &Corrector{
		Engine: eng,
		Score: func(res ocr.Result) float64 {
			for r, s := range scores {
				if res.Text == marker(r) {
					return s
				}
			}
			return 0
		},
	}
}

func marker(r int) string {
	return strings.Repeat("x", r+1)
}

func TestDetectPicksBestRotation(t *testing.T) {
	c := scripted(map[int]float64{0: 0.2, 90: 0.4, 180: 0.9, 270: 0.3})
	d, err := c.Detect(context.Background(), testImage(), 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d.Rotation != 180 {
		t.Errorf("rotation = %d, want 180", d.Rotation)
	}
	if d.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", d.Score)
	}
	if d.LowConfidence {
		t.Error("winner above floor must not be low confidence")
	}
}

func TestDetectTieKeepsUpright(t *testing.T) {
	c := scripted(map[int]float64{0: 0.5, 90: 0.5, 180: 0.5, 270: 0.5})
	d, err := c.Detect(context.Background(), testImage(), 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d.Rotation != 0 {
		t.Errorf("tie produced rotation %d, want 0", d.Rotation)
	}
}

func TestDetectNeverWorseThanBaseline(t *testing.T) {
	c := scripted(map[int]float64{0: 0.8, 90: 0.3, 180: 0.2, 270: 0.4})
	d, err := c.Detect(context.Background(), testImage(), 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d.Rotation != 0 || d.Score != 0.8 {
		t.Errorf("got rotation %d score %v, want upright baseline", d.Rotation, d.Score)
	}
}

func TestDetectBelowFloorIsLowConfidence(t *testing.T) {
	c := scripted(map[int]float64{0: 0.02, 90: 0.05, 180: 0.04, 270: 0.01})
	d, err := c.Detect(context.Background(), testImage(), 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !d.LowConfidence {
		t.Error("all scores below floor must mark low confidence")
	}
	if d.Rotation != 0 {
		t.Errorf("low confidence page must stay upright, got %d", d.Rotation)
	}
}

func TestDetectMetadataShortCircuit(t *testing.T) {
	c := scripted(map[int]float64{0: 0.2, 90: 0.7, 180: 0.9, 270: 0.3})
	eng := c.Engine.(*ocr.MockEngine)

	d, err := c.Detect(context.Background(), testImage(), 90)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d.Rotation != 90 {
		t.Errorf("rotation = %d, want the confirmed metadata hint 90", d.Rotation)
	}
	if !d.MetadataShortCircuit {
		t.Error("confirmed hint must short-circuit")
	}
	// Baseline plus hint only; 180 and 270 were never scored.
	if eng.Calls() != 2 {
		t.Errorf("engine called %d times, want 2", eng.Calls())
	}
}

func TestDetectMetadataHintRejected(t *testing.T) {
	// The tag says 90 but OCR disagrees; exhaustive scoring runs and 180
	// wins.
	c := scripted(map[int]float64{0: 0.5, 90: 0.2, 180: 0.9, 270: 0.3})
	d, err := c.Detect(context.Background(), testImage(), 90)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d.Rotation != 180 {
		t.Errorf("rotation = %d, want 180 after rejecting the hint", d.Rotation)
	}
	if d.MetadataShortCircuit {
		t.Error("rejected hint must not report a short circuit")
	}
}

func TestApply(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 10))

	t.Run("zero is identity", func(t *testing.T) {
		if Apply(img, 0) != image.Image(img) {
			t.Error("0 degrees must return the image unchanged")
		}
	})
	t.Run("quarter turns swap dimensions", func(t *testing.T) {
		for _, r := range []int{90, 270} {
			b := Apply(img, r).Bounds()
			if b.Dx() != 10 || b.Dy() != 30 {
				t.Errorf("rotation %d: bounds %v, want 10x30", r, b)
			}
		}
	})
	t.Run("half turn keeps dimensions", func(t *testing.T) {
		b := Apply(img, 180).Bounds()
		if b.Dx() != 30 || b.Dy() != 10 {
			t.Errorf("bounds %v, want 30x10", b)
		}
	})
}

func TestDefaultScore(t *testing.T) {
	t.Run("empty is zero", func(t *testing.T) {
		if s := DefaultScore(ocr.Result{Text: "  \n "}); s != 0 {
			t.Errorf("score = %v, want 0", s)
		}
	})
	t.Run("clean prose beats noise", func(t *testing.T) {
		prose := ocr.Result{Text: strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 20)}
		noise := ocr.Result{Text: strings.Repeat("@#$%^&*()!~", 80)}
		if DefaultScore(prose) <= DefaultScore(noise) {
			t.Error("readable prose must outscore symbol noise")
		}
	})
	t.Run("capped at one", func(t *testing.T) {
		huge := ocr.Result{Text: strings.Repeat("lorem ipsum dolor sit amet\n", 500)}
		if s := DefaultScore(huge); s > 1 {
			t.Errorf("score = %v, want <= 1", s)
		}
	})
}

func TestDetectErrorPropagates(t *testing.T) {
	eng := ocr.NewMockEngine()
	eng.Err = context.DeadlineExceeded
	c := &Corrector{Engine: eng}
	if _, err := c.Detect(context.Background(), testImage(), 0); err == nil {
		t.Fatal("engine error must propagate")
	}
}
