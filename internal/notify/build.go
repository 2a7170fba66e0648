package notify

import (
	"github.com/shopspring/decimal"

	"procurement-award-notifier/internal/award"
)

const (
	noGuaranteeLabel        = "Aucune garantie financière n'est exigée."
	immediateExecutionLabel = "L'exécution du marché commence à compter de sa notification."
)

func candidateBlock(c *award.Candidate) CandidateBlock {
	contact := c.ContactOrEmpty()
	return CandidateBlock{
		Name:       c.Name,
		Siret:      contact.Siret,
		Address:    contact.Address,
		PostalCode: contact.PostalCode,
		City:       contact.City,
		Email:      contact.Email,
		Phone:      contact.Phone,
	}
}

func wonLotRefs(c *award.Candidate) ([]LotRef, decimal.Decimal) {
	refs := make([]LotRef, 0, len(c.WonLots))
	total := decimal.Zero
	for _, won := range c.WonLots {
		refs = append(refs, LotRef{Numero: won.LotNumero, Intitule: won.LotIntitule, AmountTTC: won.AmountTTC})
		total = total.Add(won.AmountTTC)
	}
	return refs, total
}

// BuildAttribution returns the NOTI1 record listing every lot the candidate
// won.
func BuildAttribution(p Procedure, c *award.Candidate) AttributionData {
	lots, total := wonLotRefs(c)
	return AttributionData{
		Kind:            KindAttribution,
		ProcedureNumero: p.Numero,
		ProcedureTitle:  p.Title,
		Buyer:           p.Buyer,
		Candidate:       candidateBlock(c),
		Lots:            lots,
		TotalTTC:        total,
	}
}

// BuildRejections returns one NOTI3 record per lost lot.
func BuildRejections(p Procedure, c *award.Candidate) []RejectionData {
	block := candidateBlock(c)
	records := make([]RejectionData, 0, len(c.LostLots))
	for _, lost := range c.LostLots {
		motif := lost.RejectionMotif
		if motif == "" {
			motif = award.DefaultRejectionMotif
		}
		records = append(records, RejectionData{
			Kind:            KindRejection,
			ProcedureNumero: p.Numero,
			ProcedureTitle:  p.Title,
			Buyer:           p.Buyer,
			Candidate:       block,
			Lot:             LotRef{Numero: lost.LotNumero, Intitule: lost.LotIntitule, AmountTTC: lost.AmountTTC},
			Rank:            lost.Rank,
			Scores:          lost.Scores,
			WinnerName:      lost.WinnerName,
			WinnerScores:    lost.WinnerScores,
			WinnerAmountTTC: lost.WinnerAmountTTC,
			Weights:         lost.Weights,
			Motif:           motif,
			StandstillDays:  StandstillDays,
		})
	}
	return records
}

// BuildAward returns the NOTI5 record with guarantee and execution terms set
// to "no guarantee" and "immediate execution".
func BuildAward(p Procedure, c *award.Candidate) AwardData {
	lots, total := wonLotRefs(c)
	return AwardData{
		Kind:            KindAward,
		ProcedureNumero: p.Numero,
		ProcedureTitle:  p.Title,
		Buyer:           p.Buyer,
		Candidate:       candidateBlock(c),
		Lots:            lots,
		TotalTTC:        total,
		Guarantee: GuaranteeTerms{
			Required: false,
			Label:    noGuaranteeLabel,
		},
		Execution: ExecutionTerms{
			Immediate: true,
			Label:     immediateExecutionLabel,
		},
	}
}

// BuildAll builds every letter record of a classification run: NOTI1 and
// NOTI5 for each candidate with a won lot, NOTI3 for each lost lot. Records
// follow Result.Awardees and Result.Rejected: winner-only or loser-only
// candidates first, then mixed ones.
func BuildAll(p Procedure, r *award.Result) Batch {
	batch := Batch{
		Attributions: []AttributionData{},
		Rejections:   []RejectionData{},
		Awards:       []AwardData{},
	}
	if r == nil {
		return batch
	}
	for _, c := range r.Awardees() {
		batch.Attributions = append(batch.Attributions, BuildAttribution(p, c))
		batch.Awards = append(batch.Awards, BuildAward(p, c))
	}
	for _, c := range r.Rejected() {
		batch.Rejections = append(batch.Rejections, BuildRejections(p, c)...)
	}
	return batch
}
