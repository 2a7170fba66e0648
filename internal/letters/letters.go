// Package letters renders notification records into plain-text letters and
// bundles them for bulk export.
package letters

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"procurement-award-notifier/internal/normalize"
	"procurement-award-notifier/internal/notify"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Placeholder marks a field the operator completes by hand.
const Placeholder = "...................."

var templates = template.Must(template.New("letters").Funcs(template.FuncMap{
	"blank":   blank,
	"euro":    Euro,
	"percent": percent,
	"score":   score,
	"rank":    rank,
	"yesno":   yesno,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Document is one rendered letter.
type Document struct {
	Name string
	Kind notify.Kind
	Body []byte
}

// RenderAttribution renders a NOTI1 letter.
func RenderAttribution(data notify.AttributionData) (Document, error) {
	return render("noti1", data.Kind, fileName(data.Kind, data.Candidate.Name, ""), data)
}

// RenderRejection renders a NOTI3 letter.
func RenderRejection(data notify.RejectionData) (Document, error) {
	return render("noti3", data.Kind, fileName(data.Kind, data.Candidate.Name, data.Lot.Numero), data)
}

// RenderAward renders a NOTI5 letter.
func RenderAward(data notify.AwardData) (Document, error) {
	return render("noti5", data.Kind, fileName(data.Kind, data.Candidate.Name, ""), data)
}

// RenderBatch renders every record of a batch: NOTI1, then NOTI3, then NOTI5.
// Names are made unique within the result.
func RenderBatch(batch notify.Batch) ([]Document, error) {
	docs := make([]Document, 0, batch.Len())
	for _, data := range batch.Attributions {
		doc, err := RenderAttribution(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	for _, data := range batch.Rejections {
		doc, err := RenderRejection(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	for _, data := range batch.Awards {
		doc, err := RenderAward(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	dedupeNames(docs)
	return docs, nil
}

func render(name string, kind notify.Kind, file string, data any) (Document, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Document{}, fmt.Errorf("unable to render %s for %s: %w", kind, file, err)
	}
	return Document{Name: file, Kind: kind, Body: buf.Bytes()}, nil
}

func fileName(kind notify.Kind, candidate, lot string) string {
	slug := strings.ReplaceAll(normalize.Name(candidate), " ", "_")
	if slug == "" {
		slug = "candidat"
	}
	if lot == "" {
		return fmt.Sprintf("%s_%s.txt", kind, slug)
	}
	lotSlug := strings.ReplaceAll(normalize.Name(lot), " ", "_")
	return fmt.Sprintf("%s_%s_lot%s.txt", kind, slug, lotSlug)
}

func dedupeNames(docs []Document) {
	taken := make(map[string]bool, len(docs))
	for _, doc := range docs {
		taken[doc.Name] = false
	}
	for i := range docs {
		name := docs[i].Name
		if !taken[name] {
			taken[name] = true
			continue
		}
		base := strings.TrimSuffix(name, ".txt")
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d.txt", base, n)
			if _, exists := taken[candidate]; !exists {
				docs[i].Name = candidate
				taken[candidate] = true
				break
			}
		}
	}
}

func blank(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Euro formats an amount the French way: "12 345,60 €".
func Euro(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s%s,%s €", sign, grouped.String(), fracPart)
}

func frenchFloat(f float64) string {
	return strings.Replace(strconv.FormatFloat(f, 'f', 2, 64), ".", ",", 1)
}

func percent(f float64) string {
	return strings.Replace(strconv.FormatFloat(f, 'f', -1, 64), ".", ",", 1) + " %"
}

func score(value float64, scale int) string {
	if scale <= 0 {
		return frenchFloat(value)
	}
	return fmt.Sprintf("%s / %d", frenchFloat(value), scale)
}

func rank(r int) string {
	if r <= 0 {
		return "non classé"
	}
	return strconv.Itoa(r)
}

func yesno(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}
