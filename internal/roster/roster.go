// Package roster holds candidate contact coordinates, usually taken from the
// register of deposits, and resolves a ranking-table name to one of them.
package roster

import (
	"fmt"
	"strconv"
	"strings"

	"procurement-award-notifier/internal/normalize"
)

// MinSubstringLen is the shortest normalized name allowed to take part in a
// substring match.
const MinSubstringLen = 4

// Contact is one roster entry.
type Contact struct {
	Name       string `json:"name"`
	Siret      string `json:"siret,omitempty"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

var (
	nameKeys       = []string{"raison_sociale", "raisonsociale", "societe", "entreprise", "nom", "name", "company"}
	siretKeys      = []string{"siret", "siren"}
	addressKeys    = []string{"adresse", "address", "adresse_postale"}
	postalCodeKeys = []string{"code_postal", "codepostal", "cp", "postal_code"}
	cityKeys       = []string{"ville", "city", "commune"}
	emailKeys      = []string{"email", "mail", "courriel", "adresse_electronique"}
	phoneKeys      = []string{"telephone", "tel", "phone", "telephone_fixe"}
)

// FromRecords converts loosely shaped records. Keys are matched case
// insensitively; records without any name are dropped.
func FromRecords(records []map[string]any) []Contact {
	contacts := make([]Contact, 0, len(records))
	for _, record := range records {
		lookup := lowerKeys(record)
		contact := Contact{
			Name:       pick(lookup, nameKeys),
			Siret:      pick(lookup, siretKeys),
			Address:    pick(lookup, addressKeys),
			PostalCode: pick(lookup, postalCodeKeys),
			City:       pick(lookup, cityKeys),
			Email:      pick(lookup, emailKeys),
			Phone:      pick(lookup, phoneKeys),
		}
		if contact.Name == "" {
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts
}

func lowerKeys(record map[string]any) map[string]string {
	out := make(map[string]string, len(record))
	for key, value := range record {
		if value == nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(scalarText(value))
	}
	return out
}

// scalarText prints floats without exponent so a numeric SIRET keeps its
// digits.
func scalarText(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func pick(lookup map[string]string, keys []string) string {
	for _, key := range keys {
		if value := lookup[key]; value != "" {
			return value
		}
	}
	return ""
}

// Match resolves a candidate to a roster contact. In order: equal SIRET,
// equal normalized name, then the best substring match by length ratio with
// ties going to roster order.
func Match(name, siret string, contacts []Contact) (Contact, bool) {
	if digits := normalize.Digits(siret); digits != "" {
		for _, contact := range contacts {
			if normalize.Digits(contact.Siret) == digits {
				return contact, true
			}
		}
	}

	key := normalize.Name(name)
	if key == "" {
		return Contact{}, false
	}
	for _, contact := range contacts {
		if normalize.Name(contact.Name) == key {
			return contact, true
		}
	}

	best := -1
	var bestScore float64
	for i, contact := range contacts {
		other := normalize.Name(contact.Name)
		if !normalize.Contains(key, other, MinSubstringLen) {
			continue
		}
		score := overlap(key, other)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Contact{}, false
	}
	return contacts[best], true
}

func overlap(a, b string) float64 {
	shorter, longer := len(a), len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter) / float64(longer)
}
