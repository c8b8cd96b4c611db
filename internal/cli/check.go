package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/apiguard/internal/digester"
	"github.com/dshills/apiguard/internal/logging"
	"github.com/dshills/apiguard/internal/notify"
	"github.com/dshills/apiguard/internal/output"
	"github.com/dshills/apiguard/internal/report"
)

type checkFlags struct {
	allowList  string
	reportPath string
	commentPR  *negatableBool
	format     string
	summaryOut string
}

func (a *app) checkCmd() *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check-api <baseline-dump> <latest-dump>",
		Short: "Compare two API dumps and fail on breakage",
		Long: "Diagnose the differences between a baseline and a latest API dump. " +
			"Exits 1 and prints the full report when the latest dump breaks the baseline.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args[0], args[1], f)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.allowList, "breakage-allowlist-path", "", "File listing accepted API breakages")
	fs.StringVar(&f.reportPath, "report-path", "", "Where to write the raw report (default from config)")
	f.commentPR = addNegatable(fs, "comment-pr", "Comment on the current pull request with the result")
	fs.StringVar(&f.format, "format", "", "Summary format: text, markdown, json, sarif")
	fs.StringVar(&f.summaryOut, "summary-out", "", "Write the summary to a file instead of stdout")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, baseline, latest string, f *checkFlags) error {
	cfg, err := a.loadConfig(map[string]string{
		"reportPath": f.reportPath,
		"format":     f.format,
		"commentPR":  f.commentPR.override(cmd.Flags()),
	})
	if err != nil {
		return err
	}
	mode, err := report.ParseVerdictMode(cfg.Verdict)
	if err != nil {
		return &usageError{err}
	}

	req := digester.CompareRequest{}
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&req.Baseline, baseline},
		{&req.Candidate, latest},
		{&req.OutputPath, cfg.ReportPath},
		{&req.AllowList, f.allowList},
	} {
		if *p.dst, err = absPath(p.src); err != nil {
			return err
		}
	}
	summaryOut, err := absPath(f.summaryOut)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	a.logger = a.logger.With().Str("run_id", runID).Logger()

	r, err := a.digester(cfg).Compare(cmd.Context(), req)
	if err != nil {
		return err
	}

	doc := output.NewDocument(r, mode)
	doc.Version = version
	doc.RunID = runID
	doc.Baseline = req.Baseline
	doc.Candidate = req.Candidate

	log := logging.WithComponent(a.logger, "check")
	log.Info().
		Bool("passed", doc.Passed).
		Str("fingerprint", doc.Fingerprint).
		Int("findings", doc.Total).
		Msg("compared API dumps")

	var publishErr error
	if cfg.CommentPR {
		n := &notify.Notifier{
			Runner: a.newRunner(a.logger),
			GH:     cfg.GH,
			Logger: logging.WithComponent(a.logger, "notify"),
		}
		publishErr = n.Publish(cmd.Context(), output.RenderSummary(doc), doc.Passed)
	}
	if publishErr != nil && doc.Passed {
		return publishErr
	}

	if err := output.WriteReport(a.stdout, doc, cfg.Format, summaryOut); err != nil {
		return err
	}

	if !doc.Passed {
		if err := a.printBreakage(req.Candidate, req.OutputPath); err != nil {
			return err
		}
		// A failed comment is reported, but the breakage verdict decides the exit code.
		if publishErr != nil {
			a.printError(publishErr)
		}
		a.exitCode = ExitBreakage
	}
	return nil
}

// printBreakage writes the banner and the full raw report to stderr so CI
// logs are readable without the report file.
func (a *app) printBreakage(candidate, reportPath string) error {
	raw, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	rule := strings.Repeat("=", 38)
	fmt.Fprintf(a.stderr, "\n%s\nERROR: API breakage detected in %s\n%s\n%s\n",
		rule, filepath.Base(candidate), rule, raw)
	return nil
}
