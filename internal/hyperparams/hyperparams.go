// Package hyperparams holds the count-based knobs of a research session and
// the policy tying recursion depth to branching width.
package hyperparams

import (
	"fmt"
	"log/slog"
	"math/bits"
)

// HyperParameters configures one research session. The width is fixed at
// construction and LearningDepth never exceeds MaxAllowedDepth: every write
// goes through SetLearningDepth.
type HyperParameters struct {
	NumRefinementQuestions int
	NumLearnings           int

	learningWidth int
	learningDepth int
}

// New builds a HyperParameters, capping the depth to what the width allows.
// A width below one is raised to one and negative counts become zero.
func New(numRefinementQuestions, numLearnings, learningWidth, learningDepth int) *HyperParameters {
	if learningWidth < 1 {
		slog.Warn("learning width below minimum", "width", learningWidth, "using", 1)
		learningWidth = 1
	}
	h := &HyperParameters{
		NumRefinementQuestions: max(numRefinementQuestions, 0),
		NumLearnings:           max(numLearnings, 0),
		learningWidth:          learningWidth,
	}
	h.SetLearningDepth(learningDepth)
	return h
}

// Default returns the parameters used when none are configured.
func Default() *HyperParameters {
	return New(3, 3, 3, 2)
}

// MaxAllowedDepth returns ceil(width/2).
func MaxAllowedDepth(width int) int {
	if width < 1 {
		return 0
	}
	return (width + 1) / 2
}

// ClampDepth caps depth to MaxAllowedDepth(width) and floors it at zero. The
// boolean reports whether the requested value was changed.
func ClampDepth(width, depth int) (int, bool) {
	if depth < 0 {
		return 0, true
	}
	if limit := MaxAllowedDepth(width); depth > limit {
		return limit, true
	}
	return depth, false
}

// WidthForDepth returns ceil(width/2^depth), the number of branches to spawn
// at a recursion level.
func WidthForDepth(width, depth int) int {
	if width < 1 {
		return 0
	}
	if depth <= 0 {
		return width
	}
	if depth >= bits.UintSize-1 {
		return 1
	}
	w := width >> depth
	if width&(1<<depth-1) != 0 {
		w++
	}
	return w
}

// LearningWidth returns the number of SERP queries generated at depth 0.
func (h *HyperParameters) LearningWidth() int {
	return h.learningWidth
}

// MaxAllowedDepth returns the deepest recursion the width supports.
func (h *HyperParameters) MaxAllowedDepth() int {
	return MaxAllowedDepth(h.learningWidth)
}

// LearningDepth returns the effective recursion depth.
func (h *HyperParameters) LearningDepth() int {
	return h.learningDepth
}

// SetLearningDepth stores depth, capped to MaxAllowedDepth, and returns the
// value actually stored.
func (h *HyperParameters) SetLearningDepth(depth int) int {
	effective, clamped := ClampDepth(h.learningWidth, depth)
	if clamped {
		slog.Warn("capping learning depth to width",
			"depth", depth,
			"width", h.learningWidth,
			"capped", effective)
	}
	h.learningDepth = effective
	return effective
}

// WidthForDepth returns the branching width at the given recursion level.
func (h *HyperParameters) WidthForDepth(depth int) int {
	return WidthForDepth(h.learningWidth, depth)
}

func (h *HyperParameters) String() string {
	return fmt.Sprintf(
		"HyperParameters(num_refinement_questions=%d, num_learnings=%d, learning_width=%d, learning_depth=%d)",
		h.NumRefinementQuestions,
		h.NumLearnings,
		h.learningWidth,
		h.learningDepth,
	)
}

// LogValue implements slog.LogValuer.
func (h *HyperParameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("num_refinement_questions", h.NumRefinementQuestions),
		slog.Int("num_learnings", h.NumLearnings),
		slog.Int("learning_width", h.learningWidth),
		slog.Int("learning_depth", h.learningDepth),
	)
}
