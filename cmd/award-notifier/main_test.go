package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-award-notifier/internal/award"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "classification.json")
	out, err := run(t, "classify",
		"--report", "testdata/rapport.json",
		"--roster", "testdata/deposits.csv",
		"--json", jsonPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Warnings:\n- line 5: missing company name")
	assert.Contains(t, out, "Lots:         3 (3 awarded)")
	assert.Contains(t, out, "Candidates:   4")
	assert.Contains(t, out, "Winners:      1")
	assert.Contains(t, out, "Losers:       1")
	assert.Contains(t, out, "Mixed:        2")
	assert.Contains(t, out, "Rejection Letters: 3")
	assert.Contains(t, out, "Awarded Total: 277 620,00 €")
	assert.Contains(t, out, "1. Bâtiments Durand SARL (123 456 789 00012) | Won: 1 | Lost: 2 | Awarded: 184 320,00 €")
	assert.Contains(t, out, "1. Peintures du Centre | Won: 3 | Lost: - | Awarded: 28 500,00 €")

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var payload struct {
		Summary award.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, 2, payload.Summary.MixedCount)
}

func TestClassifyTopLimit(t *testing.T) {
	out, err := run(t, "classify", "--report", "testdata/rapport.json", "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "... 1 more")
}

func TestNotifyCommand(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "notifications.json")
	out, err := run(t, "notify",
		"--report", "testdata/rapport.json",
		"--roster", "testdata/deposits.csv",
		"--json", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NOTI1: 3 | NOTI3: 3 | NOTI5: 3")

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var batch struct {
		Rejections []struct {
			Candidate struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"candidate"`
			WinnerName     string `json:"winner_name"`
			StandstillDays int    `json:"standstill_days"`
		} `json:"rejections"`
	}
	require.NoError(t, json.Unmarshal(data, &batch))
	require.Len(t, batch.Rejections, 3)
	assert.Equal(t, "BTP Leroy", batch.Rejections[0].Candidate.Name)
	assert.Equal(t, "Bâtiments Durand SARL", batch.Rejections[0].WinnerName)
	assert.Equal(t, "contact@durand-batiments.fr", batch.Rejections[1].Candidate.Email)
	assert.Equal(t, 11, batch.Rejections[0].StandstillDays)
}

func TestExportCommand(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "letters.zip")
	out, err := run(t, "export", "--report", "testdata/rapport.json", "--out", zipPath)
	require.NoError(t, err)
	assert.Contains(t, out, "9 letters written to")

	archive, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer archive.Close()
	assert.Len(t, archive.File, 9)
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("AWARD_DATABASE_URL", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing report", []string{"classify"}, "report"},
		{"unreadable report", []string{"classify", "--report", "testdata/absent.json"}, "unable to open report"},
		{"negative top", []string{"classify", "--report", "testdata/rapport.json", "--top", "-1"}, "top must be >= 0"},
		{"notify without json", []string{"notify", "--report", "testdata/rapport.json"}, "json"},
		{"import without database", []string{"import", "--report", "testdata/rapport.json", "--procedure", "p1"}, "database_url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
