package roster

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords(t *testing.T) {
	records := []map[string]any{
		{"Raison_Sociale": "Alpha BTP", "SIRET": "123 456 789 00012", "Adresse": "1 rue des Lilas", "CP": 69001, "Ville": "Lyon", "Mail": "contact@alpha.fr"},
		{"nom": "Beta Menuiserie", "telephone": "04 00 00 00 00"},
		{"adresse": "orphan row without a name"},
		{"company": nil, "name": "Gamma"},
	}

	contacts := FromRecords(records)
	require.Len(t, contacts, 3)

	assert.Equal(t, Contact{
		Name:       "Alpha BTP",
		Siret:      "123 456 789 00012",
		Address:    "1 rue des Lilas",
		PostalCode: "69001",
		City:       "Lyon",
		Email:      "contact@alpha.fr",
	}, contacts[0])
	assert.Equal(t, "Beta Menuiserie", contacts[1].Name)
	assert.Equal(t, "04 00 00 00 00", contacts[1].Phone)
	assert.Equal(t, "Gamma", contacts[2].Name)
}

func TestFromRecordsDecodedJSON(t *testing.T) {
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(`[{"nom": "Alpha BTP", "siret": 12345678900012, "cp": 69001}]`), &records))

	contacts := FromRecords(records)
	require.Len(t, contacts, 1)
	assert.Equal(t, "12345678900012", contacts[0].Siret)
	assert.Equal(t, "69001", contacts[0].PostalCode)

	match, ok := Match("Autre nom", "123 456 789 00012", contacts)
	require.True(t, ok)
	assert.Equal(t, "Alpha BTP", match.Name)
}

func TestMatch(t *testing.T) {
	contacts := []Contact{
		{Name: "Dupont Frères SAS", City: "Lyon"},
		{Name: "Dupont", City: "Paris"},
		{Name: "Société Générale de Travaux", Siret: "111 222 333 00044"},
		{Name: "A", City: "Nowhere"},
	}

	tests := []struct {
		name     string
		input    string
		siret    string
		wantCity string
		wantName string
		wantOK   bool
	}{
		{name: "exact normalized name beats substring", input: "DUPONT", wantName: "Dupont", wantCity: "Paris", wantOK: true},
		{name: "substring picks the closest length", input: "Dupont Freres", wantName: "Dupont Frères SAS", wantCity: "Lyon", wantOK: true},
		{name: "siret wins over name", input: "Dupont", siret: "11122233300044", wantName: "Société Générale de Travaux", wantOK: true},
		{name: "accent folding", input: "SOCIETE GENERALE DE TRAVAUX", wantName: "Société Générale de Travaux", wantOK: true},
		{name: "short roster names never substring match", input: "Alpha", wantOK: false},
		{name: "empty name", input: "  ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.input, tt.siret, contacts)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantName, got.Name)
			if tt.wantCity != "" {
				assert.Equal(t, tt.wantCity, got.City)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Raison sociale;SIRET;Adresse;Code postal;Ville;Email;Téléphone",
		"Alpha BTP;12345678900012;1 rue des Lilas;69001;Lyon;contact@alpha.fr;0400000000",
		";;;;;;",
		"Beta Menuiserie;;2 avenue Foch;75016;Paris;;",
	}, "\n")

	contacts, warnings, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	require.Len(t, warnings, 1)

	assert.Equal(t, "line 3: missing company name", warnings[0])
	assert.Equal(t, "Alpha BTP", contacts[0].Name)
	assert.Equal(t, "69001", contacts[0].PostalCode)
	assert.Equal(t, "Paris", contacts[1].City)
}

func TestLoadCSVCommaSeparated(t *testing.T) {
	input := "nom,ville\nGamma,Nantes\n"

	contacts, warnings, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, contacts, 1)
	assert.Equal(t, Contact{Name: "Gamma", City: "Nantes"}, contacts[0])
}

func TestLoadCSVErrors(t *testing.T) {
	if _, _, err := LoadCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, _, err := LoadCSV(strings.NewReader("ville,email\nLyon,a@b.fr\n")); err == nil || !strings.Contains(err.Error(), "missing required headers") {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, _, err := LoadCSV(strings.NewReader("nom\n\n")); err == nil || !strings.Contains(err.Error(), "no valid contacts") {
		t.Fatalf("expected no valid contacts error, got %v", err)
	}
}
