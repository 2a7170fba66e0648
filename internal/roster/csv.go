package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"procurement-award-notifier/internal/normalize"
)

// LoadCSV reads a deposit register exported as CSV. Comma and semicolon
// separators are both accepted. Rows without a company name are reported as
// warnings and skipped.
func LoadCSV(r io.Reader) ([]Contact, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read CSV: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comma = detectComma(data)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read header: %w", err)
	}
	index := mapHeaders(header)

	if _, ok := firstIndex(index, nameKeys); !ok {
		return nil, nil, fmt.Errorf("missing required headers: one of %s", strings.Join(nameKeys, ", "))
	}

	var contacts []Contact
	var warnings []string
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		contact, warn := parseContact(record, index, line)
		if warn != "" {
			warnings = append(warnings, warn)
			continue
		}
		contacts = append(contacts, contact)
	}

	if len(contacts) == 0 {
		return nil, warnings, fmt.Errorf("no valid contacts found")
	}
	return contacts, warnings, nil
}

func detectComma(data []byte) rune {
	firstLine := string(data)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

func mapHeaders(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ReplaceAll(normalize.Name(name), " ", "_")
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

func firstIndex(index map[string]int, keys []string) (int, bool) {
	for _, key := range keys {
		if pos, ok := index[key]; ok {
			return pos, true
		}
	}
	return 0, false
}

func parseContact(record []string, index map[string]int, line int) (Contact, string) {
	get := func(keys []string) string {
		for _, key := range keys {
			pos, ok := index[key]
			if !ok || pos >= len(record) {
				continue
			}
			if value := strings.TrimSpace(record[pos]); value != "" {
				return value
			}
		}
		return ""
	}

	contact := Contact{
		Name:       get(nameKeys),
		Siret:      get(siretKeys),
		Address:    get(addressKeys),
		PostalCode: get(postalCodeKeys),
		City:       get(cityKeys),
		Email:      get(emailKeys),
		Phone:      get(phoneKeys),
	}
	if contact.Name == "" {
		return Contact{}, fmt.Sprintf("line %d: missing company name", line)
	}
	return contact, ""
}
