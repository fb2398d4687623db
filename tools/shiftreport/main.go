package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"shift-reconcile/internal/observability/metrics"
	"shift-reconcile/internal/shift/application"
	shift "shift-reconcile/internal/shift/domain"
	shiftrepo "shift-reconcile/internal/shift/infrastructure/postgres"
	"shift-reconcile/internal/shift/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dbURL     string
	stationID string
	command   string
	shiftID   string
	format    string
	outDir    string
	limit     int
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(2)
	}
	defer db.Close()

	ctx := context.Background()
	shiftRepo := shiftrepo.NewShiftRepository(db)
	history, err := application.NewHistoryService(shiftrepo.NewHistoryRepository(db), shiftRepo, cfg.stationID, cfg.limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "history service:", err)
		os.Exit(2)
	}

	switch cfg.command {
	case "list":
		headers, err := history.ListShifts(ctx, cfg.limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list shifts:", err)
			os.Exit(2)
		}
		printHeaders(headers)
	case "unsynced":
		headers, err := history.ListUnsynced(ctx, cfg.limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list unsynced:", err)
			os.Exit(2)
		}
		printHeaders(headers)
	case "detail":
		report, err := history.ShiftDetail(ctx, cfg.shiftID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "shift detail:", err)
			os.Exit(2)
		}
		printReport(report)
	case "export":
		path, err := export(ctx, history, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(2)
		}
		fmt.Println(path)
	case "mark-synced":
		if err := history.MarkSynced(ctx, cfg.shiftID); err != nil {
			fmt.Fprintln(os.Stderr, "mark synced:", err)
			os.Exit(2)
		}
		fmt.Println("synced", cfg.shiftID)
	}
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.StringVar(&cfg.stationID, "station", getenvDefault("STATION_ID", "1"), "station id")
	flag.StringVar(&cfg.command, "cmd", "list", "list | unsynced | detail | export | mark-synced")
	flag.StringVar(&cfg.shiftID, "id", "", "shift id for detail, export and mark-synced")
	flag.StringVar(&cfg.format, "format", interfaces.FormatXLSX, "export format: xlsx | pdf")
	flag.StringVar(&cfg.outDir, "out", "./out", "export output directory")
	flag.IntVar(&cfg.limit, "limit", application.DefaultHistoryLimit, "maximum rows to list")
	flag.Parse()

	if cfg.dbURL == "" {
		return cfg, errors.New("missing -db or DATABASE_URL")
	}
	switch cfg.command {
	case "list", "unsynced":
	case "detail", "export", "mark-synced":
		if cfg.shiftID == "" {
			return cfg, fmt.Errorf("-id is required for %s", cfg.command)
		}
	default:
		return cfg, fmt.Errorf("unknown -cmd %q", cfg.command)
	}
	cfg.format = strings.ToLower(cfg.format)
	return cfg, nil
}

func export(ctx context.Context, history *application.HistoryService, cfg config) (string, error) {
	report, err := history.ShiftDetail(ctx, cfg.shiftID)
	if err != nil {
		return "", err
	}
	start := time.Now()
	data, err := interfaces.BuildShiftReport(cfg.format, report)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveReportExport(cfg.format, result, time.Since(start))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("shift_%s_%s_%s.%s",
		report.Header.StationID, report.Header.Date.Format("20060102"), sanitize(report.Header.Label), cfg.format)
	path := filepath.Join(cfg.outDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func printHeaders(headers []shift.ShiftHeader) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSHIFT\tREVENUE\tSYNCED")
	for _, h := range headers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", h.ID, h.Date.Format("2006-01-02"), h.Label, h.TotalStationRevenue.StringFixed(2), h.Synced)
	}
	_ = w.Flush()
}

func printReport(report shift.ShiftReport) {
	h := report.Header
	fmt.Printf("shift %s  %s  %s  revenue=%s\n", h.ID, h.Date.Format("2006-01-02"), h.Label, h.TotalStationRevenue.StringFixed(2))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ATTENDANT\tROLE\tFUEL\tLUBRICANTS\tSTORE\tPAYMENTS\tDIFFERENCE\tBY CATEGORY")
	for _, a := range report.Attendants {
		var parts []string
		for _, p := range a.Payments {
			parts = append(parts, fmt.Sprintf("%s=%s", p.Category, p.Amount.StringFixed(2)))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Name, a.Role,
			a.FuelAllocation.StringFixed(2), a.LubricantTotal.StringFixed(2), a.InStoreSales.StringFixed(2),
			a.PaymentTotal.StringFixed(2), a.Difference.StringFixed(2), strings.Join(parts, " "))
	}
	_ = w.Flush()
	fmt.Printf("total sales=%s  net difference=%s\n", report.TotalSales.StringFixed(2), report.NetDifference.StringFixed(2))
}

func sanitize(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
