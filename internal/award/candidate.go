// Package award classifies the candidates of a multi-lot procedure into
// winners, losers and mixed outcomes from the lots' ranking tables.
package award

import (
	"github.com/shopspring/decimal"

	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
)

// DefaultRejectionMotif is used for a lost lot unless the offer carries its
// own motif.
const DefaultRejectionMotif = "Votre offre n'a pas été classée première au regard des critères de jugement des offres " +
	"énoncés dans le règlement de la consultation."

// Scores is one offer's marks. The scales record which sub-score field the
// values came from (0 when unscaled).
type Scores struct {
	Final          float64 `json:"final"`
	Technical      float64 `json:"technical"`
	TechnicalScale int     `json:"technical_scale,omitempty"`
	Financial      float64 `json:"financial"`
	FinancialScale int     `json:"financial_scale,omitempty"`
}

func scoresOf(offer report.Offer) Scores {
	return Scores{
		Final:          offer.FinalScore,
		Technical:      offer.TechnicalScore,
		TechnicalScale: offer.TechnicalScale,
		Financial:      offer.FinancialScore,
		FinancialScale: offer.FinancialScale,
	}
}

// WonLot is a snapshot of a lot the candidate won. The candidate's scores are
// also the winner's.
type WonLot struct {
	LotNumero   string          `json:"lot_numero"`
	LotIntitule string          `json:"lot_intitule"`
	AmountTTC   decimal.Decimal `json:"amount_ttc"`
	Rank        int             `json:"rank"`
	Scores      Scores          `json:"scores"`
	Weights     report.Weights  `json:"weights"`
}

// LostLot is a snapshot of a lot the candidate lost, with the lot winner it
// is compared against.
type LostLot struct {
	LotNumero       string          `json:"lot_numero"`
	LotIntitule     string          `json:"lot_intitule"`
	AmountTTC       decimal.Decimal `json:"amount_ttc"`
	Rank            int             `json:"rank"`
	Scores          Scores          `json:"scores"`
	WinnerName      string          `json:"winner_name"`
	WinnerScores    Scores          `json:"winner_scores"`
	WinnerAmountTTC decimal.Decimal `json:"winner_amount_ttc"`
	Weights         report.Weights  `json:"weights"`
	RejectionMotif  string          `json:"rejection_motif"`
}

// Candidate is a distinct bidder across the procedure, identified by its
// normalized name.
type Candidate struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Siret    string          `json:"siret,omitempty"`
	Contact  *roster.Contact `json:"contact,omitempty"`
	WonLots  []WonLot        `json:"won_lots"`
	LostLots []LostLot       `json:"lost_lots"`
}

// IsWinnerOnly reports whether the candidate won every lot it bid on.
func (c *Candidate) IsWinnerOnly() bool {
	return len(c.WonLots) > 0 && len(c.LostLots) == 0
}

// IsLoserOnly reports whether the candidate lost every lot it bid on.
func (c *Candidate) IsLoserOnly() bool {
	return len(c.WonLots) == 0 && len(c.LostLots) > 0
}

// IsMixed reports whether the candidate won some lots and lost others.
func (c *Candidate) IsMixed() bool {
	return len(c.WonLots) > 0 && len(c.LostLots) > 0
}

// ContactOrEmpty returns the roster coordinates, or a contact holding only
// the display name when the roster had no match.
func (c *Candidate) ContactOrEmpty() roster.Contact {
	if c.Contact == nil {
		return roster.Contact{Name: c.Name, Siret: c.Siret}
	}
	contact := *c.Contact
	if contact.Siret == "" {
		contact.Siret = c.Siret
	}
	return contact
}

// AwardedAmount sums the amounts of the won lots.
func (c *Candidate) AwardedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, won := range c.WonLots {
		total = total.Add(won.AmountTTC)
	}
	return total
}
