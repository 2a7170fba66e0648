package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// Default criterion weights when nothing in the lot says otherwise.
const (
	DefaultEconomicWeight  = 60.0
	DefaultTechnicalWeight = 40.0
)

// WeightSource records which rule produced a lot's weights.
type WeightSource int

const (
	WeightsDefault WeightSource = iota
	WeightsFromCriteria
	WeightsFromWeighting
	WeightsInferred
)

// String method for WeightSource enum
func (s WeightSource) String() string {
	switch s {
	case WeightsDefault:
		return "default"
	case WeightsFromCriteria:
		return "criteres"
	case WeightsFromWeighting:
		return "ponderation"
	case WeightsInferred:
		return "inferred"
	default:
		return "unknown"
	}
}

// MarshalText lets the source appear by name in JSON output.
func (s WeightSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Weights are the economic and technical criterion weights of a lot, in
// percent.
type Weights struct {
	Economic  float64      `json:"economic"`
	Technical float64      `json:"technical"`
	Source    WeightSource `json:"source"`
}

// IsMultiLot reports whether the report describes more than one lot.
func IsMultiLot(r *Report) bool {
	return len(ExtractLots(r)) > 1
}

// ExtractLots resolves the lots of a report. A report without a lots section
// yields an empty slice.
func ExtractLots(r *Report) []Lot {
	if r == nil || len(r.Lots) == 0 {
		return []Lot{}
	}

	lots := make([]Lot, 0, len(r.Lots))
	for i, entry := range r.Lots {
		numero := text(entry.Numero)
		if numero == "" {
			numero = text(i + 1)
		}
		offers := make([]Offer, 0, len(entry.Tableau))
		for _, row := range entry.Tableau {
			offers = append(offers, resolveOffer(row))
		}
		lots = append(lots, Lot{
			Numero:   numero,
			Intitule: text(entry.Intitule),
			Offers:   offers,
			Weights:  inferWeights(entry),
		})
	}
	return lots
}

func resolveOffer(row OfferEntry) Offer {
	offer := Offer{
		Name:           firstText(row.RaisonSociale, row.Candidat),
		Siret:          text(row.Siret),
		RejectionMotif: text(row.MotifRejet),
		AmountTTC:      decimal.Zero,
	}
	// Fractional ranks are unreadable and leave the offer unranked.
	if rank, ok := float(row.Rang); ok && rank == math.Trunc(rank) {
		offer.Rank = int(rank)
	}
	if score, ok := float(row.NoteFinale); ok {
		offer.FinalScore = score
	}
	if amount, ok := number(row.MontantTTC); ok {
		offer.AmountTTC = amount
	}
	offer.TechnicalScore, offer.TechnicalScale = scaledScore(
		scaled{row.NoteTechniqueSur30, 30},
		scaled{row.NoteTechniqueSur40, 40},
		scaled{row.NoteTechnique, 0},
	)
	offer.FinancialScore, offer.FinancialScale = scaledScore(
		scaled{row.NoteFinanciereSur70, 70},
		scaled{row.NoteFinanciereSur60, 60},
		scaled{row.NoteFinanciere, 0},
	)
	return offer
}

type scaled struct {
	value any
	scale int
}

// scaledScore returns the first populated score and its scale.
func scaledScore(candidates ...scaled) (float64, int) {
	for _, c := range candidates {
		if v, ok := float(c.value); ok {
			return v, c.scale
		}
	}
	return 0, 0
}

// inferWeights applies, first match wins: explicit criteria, explicit
// weighting, the scale of the first offer's financial score, then 60/40.
func inferWeights(entry LotEntry) Weights {
	if w, ok := weightsFrom(entry.Criteres); ok {
		w.Source = WeightsFromCriteria
		return w
	}
	if w, ok := weightsFrom(entry.Ponderation); ok {
		w.Source = WeightsFromWeighting
		return w
	}
	if len(entry.Tableau) > 0 {
		first := entry.Tableau[0]
		if _, ok := float(first.NoteFinanciereSur70); ok {
			return Weights{Economic: 70, Technical: 30, Source: WeightsInferred}
		}
		if _, ok := float(first.NoteFinanciereSur60); ok {
			return Weights{Economic: 60, Technical: 40, Source: WeightsInferred}
		}
	}
	return Weights{Economic: DefaultEconomicWeight, Technical: DefaultTechnicalWeight, Source: WeightsDefault}
}

// weightsFrom reads a weight block. A block giving only one side derives the
// other as its complement to 100.
func weightsFrom(entry *WeightEntry) (Weights, bool) {
	if entry == nil {
		return Weights{}, false
	}
	economic, hasEconomic := float(entry.Economique)
	if !hasEconomic {
		economic, hasEconomic = float(entry.Financier)
	}
	technical, hasTechnical := float(entry.Technique)

	switch {
	case hasEconomic && hasTechnical:
		return Weights{Economic: economic, Technical: technical}, true
	case hasEconomic:
		return Weights{Economic: economic, Technical: 100 - economic}, true
	case hasTechnical:
		return Weights{Economic: 100 - technical, Technical: technical}, true
	default:
		return Weights{}, false
	}
}
