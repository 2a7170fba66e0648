package award

import (
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
)

// Classification partitions candidates by outcome.
type Classification struct {
	Winners []*Candidate `json:"winners"`
	Losers  []*Candidate `json:"losers"`
	Mixed   []*Candidate `json:"mixed"`
}

// Classify splits candidates into winners only, losers only and mixed,
// keeping input order within each group.
func Classify(candidates []*Candidate) Classification {
	out := Classification{
		Winners: []*Candidate{},
		Losers:  []*Candidate{},
		Mixed:   []*Candidate{},
	}
	for _, candidate := range candidates {
		switch {
		case candidate.IsMixed():
			out.Mixed = append(out.Mixed, candidate)
		case candidate.IsWinnerOnly():
			out.Winners = append(out.Winners, candidate)
		case candidate.IsLoserOnly():
			out.Losers = append(out.Losers, candidate)
		}
	}
	return out
}

// Result is one classification run over a procedure.
type Result struct {
	Candidates    []*Candidate `json:"candidates"`
	Winners       []*Candidate `json:"winners"`
	Losers        []*Candidate `json:"losers"`
	Mixed         []*Candidate `json:"mixed"`
	TotalLots     int          `json:"total_lots"`
	UnawardedLots []string     `json:"unawarded_lots"`
}

// Run aggregates and classifies the candidates of the given lots.
func Run(lots []report.Lot, contacts []roster.Contact) *Result {
	candidates := Aggregate(lots, contacts)
	classes := Classify(candidates)

	unawarded := []string{}
	for _, lot := range lots {
		if _, ok := lotWinner(rankOffers(lot.Offers)); !ok {
			unawarded = append(unawarded, lot.Numero)
		}
	}

	return &Result{
		Candidates:    candidates,
		Winners:       classes.Winners,
		Losers:        classes.Losers,
		Mixed:         classes.Mixed,
		TotalLots:     len(lots),
		UnawardedLots: unawarded,
	}
}

// Awardees returns every candidate holding at least one won lot, winners
// first then mixed, each group in first-seen order.
func (r *Result) Awardees() []*Candidate {
	out := make([]*Candidate, 0, len(r.Winners)+len(r.Mixed))
	out = append(out, r.Winners...)
	return append(out, r.Mixed...)
}

// Rejected returns every candidate holding at least one lost lot, losers
// first then mixed.
func (r *Result) Rejected() []*Candidate {
	out := make([]*Candidate, 0, len(r.Losers)+len(r.Mixed))
	out = append(out, r.Losers...)
	return append(out, r.Mixed...)
}
