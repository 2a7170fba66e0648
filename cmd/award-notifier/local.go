package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
	"procurement-award-notifier/internal/service"
	"procurement-award-notifier/internal/store"
	"procurement-award-notifier/internal/store/memory"
)

// inputFlags are the file flags shared by the offline commands.
type inputFlags struct {
	reportPath string
	rosterPath string
}

func readReport(path string) (*report.Report, error) {
	if path == "" {
		return nil, fmt.Errorf("report is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open report: %w", err)
	}
	rep, err := report.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to read report %s: %w", path, err)
	}
	return rep, nil
}

// readRoster loads a CSV deposit register, or a JSON/YAML list of records.
// No path means no roster.
func readRoster(path string) ([]roster.Contact, []string, error) {
	if path == "" {
		return nil, nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open roster: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return roster.LoadCSV(file)
	}

	var records []map[string]any
	if err := yaml.NewDecoder(file).Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("unable to read roster %s: %w", path, err)
	}
	return roster.FromRecords(records), nil, nil
}

func (a *app) newService(repos service.Repositories) *service.Service {
	return service.New(repos, service.Settings{
		Buyer:          a.cfg.Buyer,
		StandstillDays: a.cfg.StandstillDays,
	}, a.logger)
}

// localService loads the input files into an in-memory store.
func (a *app) localService(ctx context.Context, in inputFlags) (*service.Service, []string, error) {
	rep, err := readReport(in.reportPath)
	if err != nil {
		return nil, nil, err
	}
	contacts, warnings, err := readRoster(in.rosterPath)
	if err != nil {
		return nil, nil, err
	}

	mem := memory.NewStore()
	svc := a.newService(service.Repositories{
		Procedures:    mem,
		Reports:       mem,
		Roster:        mem,
		Notifications: mem,
	})
	if err := svc.Import(ctx, &store.Procedure{ID: localProcedureID}, rep, contacts); err != nil {
		return nil, nil, err
	}
	return svc, warnings, nil
}
