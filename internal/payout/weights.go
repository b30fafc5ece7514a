package payout

import (
	"github.com/osse101/DCM_Go/internal/domain"
)

// ClampConfidence pins a confidence value into [MinConfidence, MaxConfidence].
// Infinite values clamp to the nearest bound.
func ClampConfidence(confidence float64) float64 {
	if confidence < MinConfidence {
		return MinConfidence
	}
	if confidence > MaxConfidence {
		return MaxConfidence
	}
	return confidence
}

// Multiplier returns the linear leverage multiplier for a confidence under the
// given bound. The result lies in [1, leverageBound].
func Multiplier(confidence, leverageBound float64) float64 {
	c := ClampConfidence(confidence)
	return 1 + (leverageBound-1)*(c/MaxConfidence)
}

// weighted is the internal per-record state between stages
type weighted struct {
	multiplier float64
	weight     float64
}

// assignWeights computes the multiplier and weight for every participant.
// Inputs must already be validated.
func assignWeights(participants []domain.Participant, leverageBound float64) []weighted {
	out := make([]weighted, len(participants))
	for i, p := range participants {
		m := Multiplier(p.Confidence, leverageBound)
		out[i] = weighted{multiplier: m, weight: p.Stake * m}
	}
	return out
}
