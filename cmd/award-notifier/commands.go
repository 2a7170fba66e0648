package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/httpapi"
	"procurement-award-notifier/internal/service"
	"procurement-award-notifier/internal/store"
	"procurement-award-notifier/internal/store/postgres"
)

func addInputFlags(cmd *cobra.Command, in *inputFlags) {
	cmd.Flags().StringVar(&in.reportPath, "report", "", "Path to the rapport de présentation (JSON or YAML)")
	cmd.Flags().StringVar(&in.rosterPath, "roster", "", "Optional deposit register (CSV, JSON or YAML)")
	_ = cmd.MarkFlagRequired("report")
}

func newClassifyCommand(a *app) *cobra.Command {
	var (
		in       inputFlags
		jsonPath string
		topN     int
		showAll  bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print winners, losers and mixed candidates of a procedure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if topN < 0 {
				return errors.New("top must be >= 0")
			}
			svc, warnings, err := a.localService(cmd.Context(), in)
			if err != nil {
				return err
			}
			result, err := svc.Classify(cmd.Context(), localProcedureID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			summary := award.Summarize(result)
			printSummary(out, summary)
			printCandidates(out, "Winners", result.Winners, topN, showAll)
			printCandidates(out, "Losers", result.Losers, topN, showAll)
			printCandidates(out, "Mixed Candidates", result.Mixed, topN, showAll)

			if jsonPath != "" {
				payload := struct {
					Summary award.Summary `json:"summary"`
					Result  *award.Result `json:"result"`
				}{summary, result}
				if err := writeJSON(jsonPath, payload); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nJSON written to %s\n", jsonPath)
			}
			return nil
		},
	}
	addInputFlags(cmd, &in)
	cmd.Flags().StringVar(&jsonPath, "json", "", "Optional path to write JSON output")
	cmd.Flags().IntVar(&topN, "top", 10, "Number of candidates to display per group")
	cmd.Flags().BoolVar(&showAll, "all", false, "Show all candidates")
	return cmd
}

func newNotifyCommand(a *app) *cobra.Command {
	var (
		in       inputFlags
		jsonPath string
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Write the NOTI1, NOTI3 and NOTI5 records as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, warnings, err := a.localService(cmd.Context(), in)
			if err != nil {
				return err
			}
			batch, err := svc.Notifications(cmd.Context(), localProcedureID)
			if err != nil {
				return err
			}
			if err := writeJSON(jsonPath, batch); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			fmt.Fprintf(out, "NOTI1: %d | NOTI3: %d | NOTI5: %d\n",
				len(batch.Attributions), len(batch.Rejections), len(batch.Awards))
			fmt.Fprintf(out, "JSON written to %s\n", jsonPath)
			return nil
		},
	}
	addInputFlags(cmd, &in)
	cmd.Flags().StringVar(&jsonPath, "json", "", "Path to write the notification records")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		in      inputFlags
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every letter into a ZIP archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, warnings, err := a.localService(cmd.Context(), in)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			count, err := svc.Export(cmd.Context(), localProcedureID, &buf)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("unable to write archive: %w", err)
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			fmt.Fprintf(out, "%d letters written to %s\n", count, outPath)
			return nil
		},
	}
	addInputFlags(cmd, &in)
	cmd.Flags().StringVar(&outPath, "out", "", "Path of the ZIP archive to write")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var (
		in          inputFlags
		procedureID string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a report and its roster in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := readReport(in.reportPath)
			if err != nil {
				return err
			}
			contacts, warnings, err := readRoster(in.rosterPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			procedure := &store.Procedure{ID: procedureID, Numero: rep.ProcedureNumber(), Title: rep.Title()}
			if err := a.newService(repositories(db)).Import(ctx, procedure, rep, contacts); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			fmt.Fprintf(out, "Procedure %s imported (%d contacts)\n", procedureID, len(contacts))
			return nil
		},
	}
	addInputFlags(cmd, &in)
	cmd.Flags().StringVar(&procedureID, "procedure", "", "Procedure id to store the report under")
	_ = cmd.MarkFlagRequired("procedure")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: a.cfg.SlogLevel()}))
			slog.SetDefault(logger)
			a.logger = logger

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			svc := a.newService(repositories(db))
			server := httpapi.NewServer(svc, a.cfg.Export.RatePerMinute, a.cfg.Export.Burst, logger)
			srv := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server starting", "addr", a.cfg.HTTPAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		},
	}
}

// openStore connects to Postgres and applies the schema.
func (a *app) openStore(ctx context.Context) (*postgres.Store, func(), error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil, errors.New("database_url is required (set it in the config file or AWARD_DATABASE_URL)")
	}
	pool, err := postgres.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	db := postgres.New(pool)
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return db, pool.Close, nil
}

func repositories(db *postgres.Store) service.Repositories {
	return service.Repositories{
		Procedures:    db,
		Reports:       db,
		Roster:        db,
		Notifications: db,
	}
}
