// Package report reads the per-lot ranking tables of a "rapport de
// présentation". Input is loosely shaped JSON or YAML; missing or malformed
// content degrades to defaults instead of failing.
package report

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

// Report is the subset of a rapport de présentation this module reads.
type Report struct {
	Numero any        `yaml:"numero_procedure" json:"numero_procedure"`
	Titre  any        `yaml:"titre" json:"titre"`
	Objet  any        `yaml:"objet" json:"objet,omitempty"`
	Lots   []LotEntry `yaml:"lots" json:"lots,omitempty"`
}

// ProcedureNumber returns the procedure reference as text.
func (r *Report) ProcedureNumber() string {
	if r == nil {
		return ""
	}
	return text(r.Numero)
}

// Title returns the procedure title, falling back to its object.
func (r *Report) Title() string {
	if r == nil {
		return ""
	}
	if t := text(r.Titre); t != "" {
		return t
	}
	return text(r.Objet)
}

// LotEntry is one lot as stored in the report.
type LotEntry struct {
	Numero      any          `yaml:"numero" json:"numero"`
	Intitule    any          `yaml:"intitule" json:"intitule"`
	Criteres    *WeightEntry `yaml:"criteres" json:"criteres,omitempty"`
	Ponderation *WeightEntry `yaml:"ponderation" json:"ponderation,omitempty"`
	Tableau     []OfferEntry `yaml:"tableau" json:"tableau"`
}

// WeightEntry carries criterion weights. Economic and financial keys are
// synonyms.
type WeightEntry struct {
	Economique any `yaml:"economique" json:"economique,omitempty"`
	Financier  any `yaml:"financier" json:"financier,omitempty"`
	Technique  any `yaml:"technique" json:"technique,omitempty"`
}

// OfferEntry is one row of a lot ranking table. Sub-scores are stored under
// the field matching their scale.
type OfferEntry struct {
	RaisonSociale       any `yaml:"raison_sociale" json:"raison_sociale,omitempty"`
	Candidat            any `yaml:"candidat" json:"candidat,omitempty"`
	Siret               any `yaml:"siret" json:"siret,omitempty"`
	Rang                any `yaml:"rang" json:"rang"`
	NoteFinale          any `yaml:"note_finale" json:"note_finale,omitempty"`
	NoteTechnique       any `yaml:"note_technique" json:"note_technique,omitempty"`
	NoteTechniqueSur30  any `yaml:"note_technique_sur_30" json:"note_technique_sur_30,omitempty"`
	NoteTechniqueSur40  any `yaml:"note_technique_sur_40" json:"note_technique_sur_40,omitempty"`
	NoteFinanciere      any `yaml:"note_financiere" json:"note_financiere,omitempty"`
	NoteFinanciereSur60 any `yaml:"note_financiere_sur_60" json:"note_financiere_sur_60,omitempty"`
	NoteFinanciereSur70 any `yaml:"note_financiere_sur_70" json:"note_financiere_sur_70,omitempty"`
	MontantTTC          any `yaml:"montant_ttc" json:"montant_ttc,omitempty"`
	MotifRejet          any `yaml:"motif_rejet" json:"motif_rejet,omitempty"`
}

// Offer is a resolved ranking-table row.
type Offer struct {
	Name           string          `json:"name"`
	Siret          string          `json:"siret,omitempty"`
	Rank           int             `json:"rank"`
	FinalScore     float64         `json:"final_score"`
	TechnicalScore float64         `json:"technical_score"`
	TechnicalScale int             `json:"technical_scale,omitempty"`
	FinancialScore float64         `json:"financial_score"`
	FinancialScale int             `json:"financial_scale,omitempty"`
	AmountTTC      decimal.Decimal `json:"amount_ttc"`
	RejectionMotif string          `json:"rejection_motif,omitempty"`
}

// Lot is one allotment with its ranking table in report order.
type Lot struct {
	Numero   string  `json:"numero"`
	Intitule string  `json:"intitule"`
	Offers   []Offer `json:"offers"`
	Weights  Weights `json:"weights"`
}

type rawReport struct {
	Numero any `yaml:"numero_procedure"`
	Titre  any `yaml:"titre"`
	Objet  any `yaml:"objet"`
	Lots   any `yaml:"lots"`
}

// Decode parses a JSON or YAML report. Only unreadable bytes are an error: a
// lots section of the wrong shape is dropped, and so is any lot that does not
// decode.
func Decode(data []byte) (*Report, error) {
	var raw rawReport
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to decode report: %w", err)
	}

	r := &Report{Numero: raw.Numero, Titre: raw.Titre, Objet: raw.Objet}
	entries, ok := raw.Lots.([]any)
	if !ok {
		return r, nil
	}
	for _, entry := range entries {
		if _, isMap := entry.(map[string]any); !isMap {
			continue
		}
		encoded, err := yaml.Marshal(entry)
		if err != nil {
			continue
		}
		var lot LotEntry
		if err := yaml.Unmarshal(encoded, &lot); err != nil {
			continue
		}
		r.Lots = append(r.Lots, lot)
	}
	return r, nil
}
