package award

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard view of a classification run.
type Summary struct {
	GeneratedAt      string          `json:"generated_at"`
	TotalLots        int             `json:"total_lots"`
	AwardedLots      int             `json:"awarded_lots"`
	UnawardedLots    []string        `json:"unawarded_lots"`
	Candidates       int             `json:"candidates"`
	WinnersCount     int             `json:"winners_count"`
	LosersCount      int             `json:"losers_count"`
	MixedCount       int             `json:"mixed_count"`
	RejectionLetters int             `json:"rejection_letters"`
	AwardedTotalTTC  decimal.Decimal `json:"awarded_total_ttc"`
	MinAwardTTC      decimal.Decimal `json:"min_award_ttc"`
	MaxAwardTTC      decimal.Decimal `json:"max_award_ttc"`
	Awards           []AwardRecord   `json:"awards"`
}

// AwardRecord is one won lot in the summary.
type AwardRecord struct {
	LotNumero   string          `json:"lot_numero"`
	LotIntitule string          `json:"lot_intitule"`
	Candidate   string          `json:"candidate"`
	FinalScore  float64         `json:"final_score"`
	AmountTTC   decimal.Decimal `json:"amount_ttc"`
}

// Summarize computes counts and award totals.
func Summarize(r *Result) Summary {
	summary := Summary{
		GeneratedAt:     time.Now().Format(time.RFC3339),
		TotalLots:       r.TotalLots,
		UnawardedLots:   r.UnawardedLots,
		Candidates:      len(r.Candidates),
		WinnersCount:    len(r.Winners),
		LosersCount:     len(r.Losers),
		MixedCount:      len(r.Mixed),
		AwardedTotalTTC: decimal.Zero,
		MinAwardTTC:     decimal.Zero,
		MaxAwardTTC:     decimal.Zero,
		Awards:          buildAwardRecords(r.Candidates),
	}

	lots := make(map[string]struct{})
	for i, record := range summary.Awards {
		lots[record.LotNumero] = struct{}{}
		summary.AwardedTotalTTC = summary.AwardedTotalTTC.Add(record.AmountTTC)
		if i == 0 || record.AmountTTC.LessThan(summary.MinAwardTTC) {
			summary.MinAwardTTC = record.AmountTTC
		}
		if i == 0 || record.AmountTTC.GreaterThan(summary.MaxAwardTTC) {
			summary.MaxAwardTTC = record.AmountTTC
		}
	}
	summary.AwardedLots = len(lots)

	for _, candidate := range r.Candidates {
		summary.RejectionLetters += len(candidate.LostLots)
	}
	return summary
}

func buildAwardRecords(candidates []*Candidate) []AwardRecord {
	records := make([]AwardRecord, 0)
	for _, candidate := range candidates {
		for _, won := range candidate.WonLots {
			records = append(records, AwardRecord{
				LotNumero:   won.LotNumero,
				LotIntitule: won.LotIntitule,
				Candidate:   candidate.Name,
				FinalScore:  won.Scores.Final,
				AmountTTC:   won.AmountTTC,
			})
		}
	}
	return records
}
