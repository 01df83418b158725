package scoring

import (
	"sort"

	"github.com/RJDCTM/autotrader/internal/models"
)

// Pipeline runs gate -> composite score -> conviction -> action over a
// snapshot universe and produces a ranked, actionable signal list.
type Pipeline struct {
	gate    *Gate
	scorer  *Scorer
	conv    ConvictionConfig
	actions ActionThresholds
}

func NewPipeline(gate GateConfig, weights Weights, conv ConvictionConfig, actions ActionThresholds) (*Pipeline, error) {
	scorer, err := NewScorer(weights)
	if err != nil {
		return nil, err
	}
	if err := actions.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		gate:    NewGate(gate),
		scorer:  scorer,
		conv:    conv,
		actions: actions,
	}, nil
}

// Evaluate scores a single snapshot. A failed gate short-circuits: the
// result carries no score and action NONE regardless of sub-scores.
func (p *Pipeline) Evaluate(snap models.FeatureSnapshot) models.CompositeResult {
	if !p.gate.Evaluate(snap) {
		return models.CompositeResult{Ticker: snap.Ticker, PassedGate: false, Action: models.ActionNone}
	}
	score := p.scorer.Score(snap)
	conviction := Classify(snap.Scores, p.conv)
	action, urgency := AssignAction(score, p.actions)
	return models.CompositeResult{
		Ticker:     snap.Ticker,
		PassedGate: true,
		Score:      score,
		Conviction: conviction,
		Action:     action,
		Urgency:    urgency,
	}
}

// EvaluateUniverse scores every snapshot and returns the results sorted by
// score descending, gate-failures last.
func (p *Pipeline) EvaluateUniverse(snaps []models.FeatureSnapshot) []models.CompositeResult {
	results := make([]models.CompositeResult, 0, len(snaps))
	for _, snap := range snaps {
		results = append(results, p.Evaluate(snap))
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PassedGate != results[j].PassedGate {
			return results[i].PassedGate
		}
		return results[i].Score > results[j].Score
	})
	return results
}
