// Package response builds the final Response from a completed Request's
// per-sentence artifacts, per the ResponseBuilder design (§4.7).
package response

import (
	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Response pairs the annotated source and target text with whatever
// optional per-sentence data the caller's Options requested.
type Response struct {
	Source *annotation.AnnotatedText
	Target *annotation.AnnotatedText

	// Alignments holds one soft alignment matrix per sentence, present
	// only if Options.Alignment was set.
	Alignments []artifact.Alignment

	// QualityScores holds one sentence-level score per sentence, present
	// only if Options.QualityScores was set.
	QualityScores []float32
}

// NumSentences returns the number of sentences carried by the response,
// which always equals the originating request's sentence count.
func (r *Response) NumSentences() int { return r.Target.NumSentences() }

// Build assembles a Response from req, whose every sentence slot must
// already be filled (callers invoke this only from a Request's onComplete
// hook). targetVocab decodes the inference backend's target token ids back
// into text; it is the same target-vocab reference the TranslationModel
// that served req was configured with.
func Build(req *request.Request, targetVocab textproc.Vocab) *Response {
	target := annotation.New()

	var alignments []artifact.Alignment
	var scores []float32
	if req.Options.Alignment {
		alignments = make([]artifact.Alignment, req.NumSentences())
	}
	if req.Options.QualityScores {
		scores = make([]float32, req.NumSentences())
	}

	for s := 0; s < req.NumSentences(); s++ {
		art := req.Slot(s)

		text, ranges := targetVocab.DecodeWithByteRanges(art.TargetIDs)
		tokens := make([]string, len(ranges))
		for i, rg := range ranges {
			// Extend to the next token's start so tokens stay contiguous, as
			// AppendSentence requires; see the matching fix in textproc.Process.
			tokEnd := rg.End
			if i+1 < len(ranges) {
				tokEnd = ranges[i+1].Begin
			}
			tokens[i] = text[rg.Begin:tokEnd]
		}

		prefix := concatPrefix(req, s)
		target.AppendSentence(prefix, tokens)

		if alignments != nil {
			alignments[s] = art.Alignment
		}
		if scores != nil {
			scores[s] = art.SentenceScore
		}
	}

	target.AppendEndingWhitespace(trailingGap(req))

	return &Response{
		Source:        req.Source,
		Target:        target,
		Alignments:    alignments,
		QualityScores: scores,
	}
}

// concatPrefix returns the whitespace to place before sentence s in the
// target text, per the request's concatenation strategy.
func concatPrefix(req *request.Request, s int) string {
	switch req.Options.ConcatStrategy {
	case request.ConcatSpace:
		if s > 0 {
			return " "
		}
		return ""
	default: // ConcatFaithful
		return req.Source.Gap(s)
	}
}

// trailingGap returns the whitespace to append after the final sentence.
func trailingGap(req *request.Request) string {
	if req.Options.ConcatStrategy == request.ConcatSpace {
		return ""
	}
	return req.Source.Gap(req.NumSentences())
}
