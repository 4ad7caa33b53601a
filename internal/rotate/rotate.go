// Package rotate decides whether a scanned page needs rotation. It scores
// OCR output at each cardinal rotation with a replaceable readability
// heuristic and only rotates when the result is strictly better than the
// 0-degree baseline.
package rotate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/docketpdf/docket/internal/ocr"
)

// Rotations are the candidate clockwise corrections, in scoring order.
var Rotations = [4]int{0, 90, 180, 270}

// ScoreFunc maps an OCR result to a readability score in [0,1].
// Higher is more readable.
type ScoreFunc func(ocr.Result) float64

// DefaultMinConfidence is the floor below which orientation is treated as
// undecidable and the page is left at 0 degrees.
const DefaultMinConfidence = 0.1

// Decision is the outcome of orientation detection for one page.
type Decision struct {
	// Rotation is the winning clockwise correction (0, 90, 180 or 270).
	Rotation int

	// Score is the readability score at the winning rotation.
	Score float64

	// LowConfidence marks pages where every candidate scored below the
	// confidence floor. Non-fatal; recorded for audit.
	LowConfidence bool

	// MetadataShortCircuit reports that the page's rotation tag agreed
	// with OCR and exhaustive scoring was skipped.
	MetadataShortCircuit bool

	// Scores holds the per-rotation scores that were actually computed.
	Scores map[int]float64
}

// Corrector detects and applies orientation corrections.
type Corrector struct {
	Engine ocr.Engine

	// Score is the readability heuristic; nil selects DefaultScore.
	Score ScoreFunc

	// MinConfidence is the undecidable floor; zero selects
	// DefaultMinConfidence.
	MinConfidence float64

	// Languages is passed through to the OCR engine.
	Languages []string

	Logger *slog.Logger
}

func (c *Corrector) score() ScoreFunc {
	if c.Score != nil {
		return c.Score
	}
	return DefaultScore
}

func (c *Corrector) floor() float64 {
	if c.MinConfidence > 0 {
		return c.MinConfidence
	}
	return DefaultMinConfidence
}

func (c *Corrector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Detect scores the four cardinal rotations and returns the winner.
// metaRotation is the page's stored rotation tag (0 when absent); when the
// tag's suggested correction beats the upright baseline and clears the
// floor, exhaustive scoring is skipped.
//
// Invariant: a non-zero rotation is returned only when its score is
// strictly greater than the 0-degree score; ties keep the page untouched.
func (c *Corrector) Detect(ctx context.Context, img image.Image, metaRotation int) (Decision, error) {
	if c.Engine == nil {
		return Decision{}, fmt.Errorf("rotate: no OCR engine configured")
	}
	score := c.score()
	scores := make(map[int]float64, len(Rotations))

	baseline, err := c.scoreRotation(ctx, img, 0, score)
	if err != nil {
		return Decision{}, err
	}
	scores[0] = baseline

	// Cheap metadata check first: a stored /Rotate tag of r means the
	// content needs r degrees clockwise to read upright.
	if hint := normalize(metaRotation); hint != 0 {
		s, err := c.scoreRotation(ctx, img, hint, score)
		if err != nil {
			return Decision{}, err
		}
		scores[hint] = s
		if s > baseline && s >= c.floor() {
			c.logger().Debug("rotation metadata confirmed by OCR",
				"rotation", hint, "score", s, "baseline", baseline)
			return Decision{Rotation: hint, Score: s, MetadataShortCircuit: true, Scores: scores}, nil
		}
	}

	best, bestScore := 0, baseline
	for _, r := range Rotations[1:] {
		if _, done := scores[r]; !done {
			s, err := c.scoreRotation(ctx, img, r, score)
			if err != nil {
				return Decision{}, err
			}
			scores[r] = s
		}
		if scores[r] > bestScore {
			best, bestScore = r, scores[r]
		}
	}

	if bestScore < c.floor() {
		c.logger().Debug("orientation undecidable, keeping page upright",
			"best_score", bestScore, "floor", c.floor())
		return Decision{Rotation: 0, Score: scores[0], LowConfidence: true, Scores: scores}, nil
	}
	return Decision{Rotation: best, Score: bestScore, Scores: scores}, nil
}

func (c *Corrector) scoreRotation(ctx context.Context, img image.Image, rotation int, score ScoreFunc) (float64, error) {
	data, err := encodePNG(Apply(img, rotation))
	if err != nil {
		return 0, err
	}
	res, err := c.Engine.Recognize(ctx, ocr.Input{
		Image:        data,
		RotationHint: rotation,
		Languages:    c.Languages,
	})
	if err != nil {
		return 0, fmt.Errorf("ocr at %d degrees: %w", rotation, err)
	}
	return score(res), nil
}

// Apply rotates img by the given clockwise degrees. 0 returns img unchanged.
func Apply(img image.Image, rotation int) image.Image {
	switch normalize(rotation) {
	case 90:
		return imaging.Rotate270(img) // imaging rotates counter-clockwise
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// DefaultScore blends text volume, word count, character quality and line
// structure into a readability score in [0,1]. Each term is capped so no
// single signal dominates. Replace via Corrector.Score for other formulas.
func DefaultScore(res ocr.Result) float64 {
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return 0
	}

	score := min(float64(len(text))/1000, 0.3)
	score += min(float64(len(strings.Fields(text)))/200, 0.3)

	alnum := 0
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alnum++
		}
	}
	score += float64(alnum) / float64(len(text)) * 0.2

	if lines := strings.Count(text, "\n") + 1; lines > 1 {
		score += min(float64(lines)/50, 0.2)
	}
	return min(score, 1.0)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page render: %w", err)
	}
	return buf.Bytes(), nil
}

func normalize(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	if r%90 != 0 {
		return 0
	}
	return r
}
