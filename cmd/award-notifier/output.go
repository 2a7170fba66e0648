package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/letters"
)

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "Warnings:")
	for _, warning := range warnings {
		fmt.Fprintf(w, "- %s\n", warning)
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, summary award.Summary) {
	fmt.Fprintln(w, "Classification Summary")
	fmt.Fprintln(w, strings.Repeat("-", 22))
	fmt.Fprintf(w, "Lots:         %d (%d awarded)\n", summary.TotalLots, summary.AwardedLots)
	fmt.Fprintf(w, "Candidates:   %d\n", summary.Candidates)
	fmt.Fprintf(w, "Winners:      %d\n", summary.WinnersCount)
	fmt.Fprintf(w, "Losers:       %d\n", summary.LosersCount)
	fmt.Fprintf(w, "Mixed:        %d\n", summary.MixedCount)
	fmt.Fprintf(w, "Rejection Letters: %d\n", summary.RejectionLetters)
	fmt.Fprintf(w, "Awarded Total: %s\n", letters.Euro(summary.AwardedTotalTTC))
	if len(summary.Awards) > 0 {
		fmt.Fprintf(w, "Award Range:  %s - %s\n", letters.Euro(summary.MinAwardTTC), letters.Euro(summary.MaxAwardTTC))
	}
	if len(summary.UnawardedLots) > 0 {
		fmt.Fprintf(w, "Unawarded Lots: %s\n", strings.Join(summary.UnawardedLots, ", "))
	}
}

func printCandidates(w io.Writer, title string, candidates []*award.Candidate, topN int, showAll bool) {
	if len(candidates) == 0 {
		fmt.Fprintf(w, "\nNo %s.\n", strings.ToLower(title))
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	limit := len(candidates)
	if !showAll && topN > 0 && topN < limit {
		limit = topN
	}
	for i := 0; i < limit; i++ {
		item := candidates[i]
		label := item.Name
		if siret := item.ContactOrEmpty().Siret; siret != "" {
			label = fmt.Sprintf("%s (%s)", item.Name, siret)
		}
		fmt.Fprintf(w, "%d. %s | Won: %s | Lost: %s | Awarded: %s\n",
			i+1, label, wonLots(item), lostLots(item), letters.Euro(item.AwardedAmount()))
	}
	if limit < len(candidates) {
		fmt.Fprintf(w, "... %d more\n", len(candidates)-limit)
	}
}

func wonLots(c *award.Candidate) string {
	if len(c.WonLots) == 0 {
		return "-"
	}
	numbers := make([]string, 0, len(c.WonLots))
	for _, lot := range c.WonLots {
		numbers = append(numbers, lot.LotNumero)
	}
	return strings.Join(numbers, ", ")
}

func lostLots(c *award.Candidate) string {
	if len(c.LostLots) == 0 {
		return "-"
	}
	numbers := make([]string, 0, len(c.LostLots))
	for _, lot := range c.LostLots {
		numbers = append(numbers, lot.LotNumero)
	}
	return strings.Join(numbers, ", ")
}

func writeJSON(path string, payload any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create JSON output: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("unable to write JSON output: %w", err)
	}
	return nil
}
