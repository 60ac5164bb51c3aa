package main

import (
	"context"
	"fmt"
	"os"

	"croptrends/adapters/excel"
	"croptrends/adapters/plot"
	"croptrends/adapters/postgres"
	"croptrends/app"
	"croptrends/internal"
	"croptrends/internal/analysis"
	"croptrends/internal/config"
	"croptrends/internal/dataset"
	"croptrends/internal/report"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	loader := dataset.NewLoader(cfg.Data.MaxRetries, logger)
	fitter := analysis.NewFitter(cfg.Analysis.Workers, logger)
	service := app.NewTrendService(loader, fitter, logger)

	result, err := service.Run(ctx, app.TrendRequest{
		YieldSource: cfg.Data.YieldSource,
		RankSource:  cfg.Data.RankSource,
		RankColumn:  cfg.Data.RankColumn,
		Crops:       cfg.Analysis.Crops,
		TopN:        cfg.Analysis.TopN,
		Aggregates:  cfg.Analysis.Aggregates,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		os.Exit(1)
	}

	logger.Info("run %s: %d slope records, %d skipped groups",
		result.Manifest.RunID, len(result.Records), len(result.Skipped))
	for _, sk := range result.Skipped {
		logger.Info("skipped %s: %s", sk.Key, sk.Reason)
	}

	diagnostics := analysis.Diagnose(analysis.PartitionGroups(result.Observations))

	renderer := plot.NewRenderer()
	if err := renderer.RenderYieldSeries(result.Observations, cfg.Output.ChartDir); err != nil {
		fmt.Fprintf(os.Stderr, "chart rendering failed: %v\n", err)
		os.Exit(1)
	}
	if err := renderer.RenderVolcano(result.Records, cfg.Output.ChartDir); err != nil {
		fmt.Fprintf(os.Stderr, "chart rendering failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("charts written to %s", cfg.Output.ChartDir)

	if err := excel.NewResultWriter().Export(result, cfg.Output.ExcelFile); err != nil {
		fmt.Fprintf(os.Stderr, "excel export failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("workbook written to %s", cfg.Output.ExcelFile)

	if err := report.Write(result, diagnostics, cfg.Output.ReportFile); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("report written to %s", cfg.Output.ReportFile)

	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "schema setup failed: %v\n", err)
			os.Exit(1)
		}
		store := postgres.NewSlopeRepository(db)
		if err := store.SaveRun(ctx, result); err != nil {
			fmt.Fprintf(os.Stderr, "persisting run failed: %v\n", err)
			os.Exit(1)
		}
		logger.Info("run %s persisted", result.Manifest.RunID)
	}
}
