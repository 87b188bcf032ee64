package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/vk/chipflow/internal/ctxlog"
)

// ReportSummary writes a JSON report of the run so far: the design's
// identity, the state's design-format entries, and accumulated metrics.
type ReportSummary struct{}

// ID implements the Step interface.
func (s *ReportSummary) ID() string { return "report.summary" }

// Run implements the Step interface.
func (s *ReportSummary) Run(ctx context.Context, sc *StepContext) error {
	logger := ctxlog.FromContext(ctx)

	designName, _ := sc.Config.String("DESIGN_NAME")
	pdk, _ := sc.Config.String("PDK")

	report := map[string]any{
		"design":  designName,
		"pdk":     pdk,
		"formats": sc.State.FormatKeys(),
		"metrics": sc.State.Metrics,
	}
	raw, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	reportFile := filepath.Join(sc.StepDir, "report.json")
	if err := os.WriteFile(reportFile, raw, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	sc.State.Files["report"] = &reportFile
	logger.Info("Run report written.", "path", reportFile)
	return nil
}

// ReportArchive compresses the run report into a gzip artifact suitable
// for attaching to CI results.
type ReportArchive struct{}

// ID implements the Step interface.
func (s *ReportArchive) ID() string { return "report.archive" }

// Run implements the Step interface.
func (s *ReportArchive) Run(ctx context.Context, sc *StepContext) error {
	logger := ctxlog.FromContext(ctx)

	reportPath := sc.State.Files["report"]
	if reportPath == nil {
		return Deliberatef("no report in state; run report.summary first")
	}
	raw, err := os.ReadFile(*reportPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	archiveFile := filepath.Join(sc.StepDir, "report.json.gz")
	out, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := zw.Write(raw); err != nil {
		return fmt.Errorf("compressing report: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	sc.State.Files["report_gz"] = &archiveFile
	logger.Info("Run report archived.", "path", archiveFile)
	return nil
}
