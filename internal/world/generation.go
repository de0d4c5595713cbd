// Vineyard plot placement using simplex noise.
// Plots sit on a regular grid inside the vineyard area; each grid cell is
// nudged by a noise sample so rows look hand-planted rather than stamped.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/der-cain/npc-town/internal/geom"
)

// PlotConfig holds plot placement parameters.
type PlotConfig struct {
	Rows   int
	Cols   int
	Seed   int64
	Jitter float64 // Max offset from the cell centre as a fraction of the cell size (0–0.5)
}

// DefaultPlotConfig returns the 2x4 vineyard used by the default scenario.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Rows:   2,
		Cols:   4,
		Seed:   42,
		Jitter: 0.15,
	}
}

// PlacePlots returns Rows*Cols plot centres inside area, row-major.
// The same seed always yields the same layout.
func PlacePlots(area geom.Rect, cfg PlotConfig) []geom.Point {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil
	}

	jitter := math.Max(0, math.Min(cfg.Jitter, 0.5))

	// Independent noise fields for the two axes.
	xNoise := opensimplex.NewNormalized(cfg.Seed)
	yNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	cellW := area.Width / float64(cfg.Cols)
	cellH := area.Height / float64(cfg.Rows)

	points := make([]geom.Point, 0, cfg.Rows*cfg.Cols)
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			cx := area.X + (float64(c)+0.5)*cellW
			cy := area.Y + (float64(r)+0.5)*cellH

			// Normalized noise is in [0,1); recentre to [-1,1).
			nx := xNoise.Eval2(float64(c)*0.7, float64(r)*0.7)*2 - 1
			ny := yNoise.Eval2(float64(c)*0.7, float64(r)*0.7)*2 - 1

			points = append(points, geom.Pt(
				cx+nx*jitter*cellW,
				cy+ny*jitter*cellH,
			))
		}
	}
	return points
}
