package award

import (
	"sort"
	"strings"

	"procurement-award-notifier/internal/normalize"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
)

// Aggregate builds one Candidate per distinct identity across all lots, in
// order of first appearance. Offers sharing a SIRET are the same candidate.
// Offers sharing a normalized name are too, unless both carry different
// SIRETs; the later company is then keyed "<name>#<siret>".
//
// Each lot's table is ranked before use. Rank 1 wins; every other ranked or
// unranked offer loses against the first named rank-1 offer. Nameless offers
// are dropped. Inputs are not modified.
func Aggregate(lots []report.Lot, contacts []roster.Contact) []*Candidate {
	candidates := make([]*Candidate, 0)
	byKey := make(map[string]*Candidate)
	bySiret := make(map[string]*Candidate)

	for _, lot := range lots {
		ranked := rankOffers(lot.Offers)
		winner, hasWinner := lotWinner(ranked)

		for _, offer := range ranked {
			name := strings.TrimSpace(offer.Name)
			if name == "" {
				continue
			}
			key := normalize.Name(name)
			if key == "" {
				continue
			}

			siret := normalize.Digits(offer.Siret)
			candidate := bySiret[siret]
			if candidate == nil {
				named := byKey[key]
				if named != nil && (siret == "" || normalize.Digits(named.Siret) == "") {
					candidate = named
				}
			}
			if candidate == nil {
				id := key
				if _, taken := byKey[id]; taken {
					id = key + "#" + siret
				}
				candidate = newCandidate(id, name, offer.Siret, contacts)
				byKey[id] = candidate
				candidates = append(candidates, candidate)
			}
			if _, known := byKey[key]; !known {
				byKey[key] = candidate
			}
			if siret != "" {
				if _, known := bySiret[siret]; !known {
					bySiret[siret] = candidate
				}
			}
			if candidate.Siret == "" {
				candidate.Siret = strings.TrimSpace(offer.Siret)
			}

			if offer.Rank == 1 {
				candidate.WonLots = append(candidate.WonLots, WonLot{
					LotNumero:   lot.Numero,
					LotIntitule: lot.Intitule,
					AmountTTC:   offer.AmountTTC,
					Rank:        offer.Rank,
					Scores:      scoresOf(offer),
					Weights:     lot.Weights,
				})
				continue
			}

			lost := LostLot{
				LotNumero:      lot.Numero,
				LotIntitule:    lot.Intitule,
				AmountTTC:      offer.AmountTTC,
				Rank:           offer.Rank,
				Scores:         scoresOf(offer),
				Weights:        lot.Weights,
				RejectionMotif: DefaultRejectionMotif,
			}
			if offer.RejectionMotif != "" {
				lost.RejectionMotif = offer.RejectionMotif
			}
			if hasWinner {
				lost.WinnerName = strings.TrimSpace(winner.Name)
				lost.WinnerScores = scoresOf(winner)
				lost.WinnerAmountTTC = winner.AmountTTC
			}
			candidate.LostLots = append(candidate.LostLots, lost)
		}
	}
	return candidates
}

// Index returns the candidates keyed by Candidate.Key: the normalized name,
// or "<name>#<siret>" for a homonym with its own SIRET.
func Index(candidates []*Candidate) map[string]*Candidate {
	index := make(map[string]*Candidate, len(candidates))
	for _, candidate := range candidates {
		index[candidate.Key] = candidate
	}
	return index
}

func newCandidate(key, name, siret string, contacts []roster.Contact) *Candidate {
	candidate := &Candidate{
		Key:      key,
		Name:     name,
		Siret:    strings.TrimSpace(siret),
		WonLots:  []WonLot{},
		LostLots: []LostLot{},
	}
	if contact, ok := roster.Match(name, siret, contacts); ok {
		candidate.Contact = &contact
	}
	return candidate
}

// rankOffers returns a copy of the table sorted by rank ascending. Ranks of
// zero or less are unranked and go last; equal ranks keep table order.
func rankOffers(offers []report.Offer) []report.Offer {
	ranked := make([]report.Offer, len(offers))
	copy(ranked, offers)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Rank, ranked[j].Rank
		if ri <= 0 || rj <= 0 {
			return ri > 0 && rj <= 0
		}
		return ri < rj
	})
	return ranked
}

// lotWinner returns the first named rank-1 offer of a ranked table.
func lotWinner(ranked []report.Offer) (report.Offer, bool) {
	for _, offer := range ranked {
		if offer.Rank != 1 {
			break
		}
		if normalize.Name(offer.Name) != "" {
			return offer, true
		}
	}
	return report.Offer{}, false
}
