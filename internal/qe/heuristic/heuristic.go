// Package heuristic implements a shallow, literal quality estimator used as
// a fallback when no real QE model is wired into the translation fabric.
//
// The estimator combines two signals computed directly from the source and
// target sentence strings, without any reference to the model that produced
// the translation:
//
//  1. Length proportionality: translations are expected to track the
//     source sentence's length reasonably closely; a target that is far
//     shorter or longer than the source is penalized.
//
//  2. Literal overlap: Jaro-Winkler similarity between the lowercased
//     source and target. Because translation is expected to change the
//     surface form of the text, high literal similarity is treated as a
//     sign of untranslated or copy-through text rather than a good sign.
//
// This is a proxy, not a substitute for a trained QE model — it exists so
// that request.Options.QualityScores-shaped code paths have a non-nil,
// deterministic implementation to exercise end to end.
package heuristic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Score estimates translation quality for the (source, target) sentence
// pair as a value in [0, 1], higher meaning more plausible. Returns 0 if
// either string is empty after trimming.
func Score(source, target string) float32 {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return 0
	}

	length := lengthRatio(len(source), len(target))
	literal := float64(matchr.JaroWinkler(strings.ToLower(source), strings.ToLower(target), false))

	score := 0.7*length + 0.3*(1-literal)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return float32(score)
}

// lengthRatio returns the ratio of the shorter byte length to the longer,
// in [0, 1]. Returns 0 if either length is zero.
func lengthRatio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	shorter, longer := a, b
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter) / float64(longer)
}
