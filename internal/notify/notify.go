// Package notify builds the flat records behind the NOTI1 (attribution
// intent), NOTI3 (rejection) and NOTI5 (award) letters. Records are drafts:
// nothing is validated and missing coordinates stay empty.
package notify

import (
	"github.com/shopspring/decimal"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/report"
)

// StandstillDays is the waiting period between a rejection notice and the
// contract signature.
const StandstillDays = 11

// Kind names a letter template.
type Kind string

const (
	KindAttribution Kind = "NOTI1"
	KindRejection   Kind = "NOTI3"
	KindAward       Kind = "NOTI5"
)

// BuyerIdentity is the contracting authority block printed on every letter.
type BuyerIdentity struct {
	Name                string `yaml:"name" json:"name"`
	Department          string `yaml:"department" json:"department,omitempty"`
	Address             string `yaml:"address" json:"address,omitempty"`
	PostalCode          string `yaml:"postal_code" json:"postal_code,omitempty"`
	City                string `yaml:"city" json:"city,omitempty"`
	Phone               string `yaml:"phone" json:"phone,omitempty"`
	Email               string `yaml:"email" json:"email,omitempty"`
	Representative      string `yaml:"representative" json:"representative,omitempty"`
	RepresentativeTitle string `yaml:"representative_title" json:"representative_title,omitempty"`
}

// Procedure is the ambient metadata shared by every letter of a procedure.
type Procedure struct {
	Numero string        `json:"numero"`
	Title  string        `json:"title"`
	Buyer  BuyerIdentity `json:"buyer"`
}

// CandidateBlock is the addressee block.
type CandidateBlock struct {
	Name       string `json:"name"`
	Siret      string `json:"siret"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// LotRef identifies a lot in a letter.
type LotRef struct {
	Numero    string          `json:"numero"`
	Intitule  string          `json:"intitule"`
	AmountTTC decimal.Decimal `json:"amount_ttc"`
}

// Signature holds the fields the operator completes by hand.
type Signature struct {
	SignatoryName  string `json:"signatory_name"`
	SignatoryTitle string `json:"signatory_title"`
	Place          string `json:"place"`
	Date           string `json:"date"`
}

// AttributionData feeds a NOTI1 letter.
type AttributionData struct {
	Kind               Kind            `json:"kind"`
	ProcedureNumero    string          `json:"procedure_numero"`
	ProcedureTitle     string          `json:"procedure_title"`
	Buyer              BuyerIdentity   `json:"buyer"`
	Candidate          CandidateBlock  `json:"candidate"`
	Lots               []LotRef        `json:"lots"`
	TotalTTC           decimal.Decimal `json:"total_ttc"`
	DocumentsToProvide string          `json:"documents_to_provide"`
	DocumentsDeadline  string          `json:"documents_deadline"`
	Guarantee          string          `json:"guarantee"`
	Signature          Signature       `json:"signature"`
}

// RejectionData feeds a NOTI3 letter. There is one per lost lot.
type RejectionData struct {
	Kind            Kind            `json:"kind"`
	ProcedureNumero string          `json:"procedure_numero"`
	ProcedureTitle  string          `json:"procedure_title"`
	Buyer           BuyerIdentity   `json:"buyer"`
	Candidate       CandidateBlock  `json:"candidate"`
	Lot             LotRef          `json:"lot"`
	Rank            int             `json:"rank"`
	Scores          award.Scores    `json:"scores"`
	WinnerName      string          `json:"winner_name"`
	WinnerScores    award.Scores    `json:"winner_scores"`
	WinnerAmountTTC decimal.Decimal `json:"winner_amount_ttc"`
	Weights         report.Weights  `json:"weights"`
	Motif           string          `json:"motif"`
	StandstillDays  int             `json:"standstill_days"`
	Signature       Signature       `json:"signature"`
}

// GuaranteeTerms describes the financial guarantees required from the
// awardee.
type GuaranteeTerms struct {
	Required             bool   `json:"required"`
	Label                string `json:"label"`
	RetentionRate        string `json:"retention_rate"`
	FirstDemandGuarantee bool   `json:"first_demand_guarantee"`
	PersonalSurety       bool   `json:"personal_surety"`
}

// ExecutionTerms describes when performance starts.
type ExecutionTerms struct {
	Immediate            bool   `json:"immediate"`
	Label                string `json:"label"`
	StartDate            string `json:"start_date"`
	OrderServiceRequired bool   `json:"order_service_required"`
}

// AwardData feeds a NOTI5 letter.
type AwardData struct {
	Kind            Kind            `json:"kind"`
	ProcedureNumero string          `json:"procedure_numero"`
	ProcedureTitle  string          `json:"procedure_title"`
	Buyer           BuyerIdentity   `json:"buyer"`
	Candidate       CandidateBlock  `json:"candidate"`
	Lots            []LotRef        `json:"lots"`
	TotalTTC        decimal.Decimal `json:"total_ttc"`
	Guarantee       GuaranteeTerms  `json:"guarantee"`
	Execution       ExecutionTerms  `json:"execution"`
	Signature       Signature       `json:"signature"`
}

// Batch is every record produced for one classification run.
type Batch struct {
	Attributions []AttributionData `json:"attributions"`
	Rejections   []RejectionData   `json:"rejections"`
	Awards       []AwardData       `json:"awards"`
}

// Len is the number of letters in the batch.
func (b Batch) Len() int {
	return len(b.Attributions) + len(b.Rejections) + len(b.Awards)
}
