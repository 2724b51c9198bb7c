package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/config"
	"github.com/0ritam/studentlens/internal/logging"
	"github.com/0ritam/studentlens/internal/rank"
	"github.com/0ritam/studentlens/internal/student"
)

// cliStyles renders tables and bars outside the dashboard; colors drop
// away on non-TTY output.
var cliStyles = ui.DefaultStyles()

// healthCmd probes the prediction service
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the prediction service",
	Long: `Calls the service health endpoint and reports whether the model is
loaded. Exits non-zero when the service is unreachable or not ready,
so it can gate scripts.`,
	RunE: runHealth,
}

// predictCmd predicts the outcome for one student
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the final outcome for one student record",
	Long: `Reads a single student record as JSON and prints the predicted final
result with the full class probability distribution.

Example:
  studentlens predict -f student.json
  cat student.json | studentlens predict --json`,
	RunE: runPredict,
}

// explainCmd explains a prediction with SHAP and LIME
var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain a prediction with SHAP and LIME rankings",
	Long: `Reads a single student record as JSON and prints the top features
driving the prediction: SHAP weights, LIME weights, and the service's
combined importance ranking.

Example:
  studentlens explain -f student.json
  studentlens explain -f student.json --save-plots plots/`,
	RunE: runExplain,
}

// batchCmd predicts a whole cohort
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict outcomes for a batch of student records",
	Long: `Reads multiple student records and submits them in one request.
Records that fail validation locally are reported before anything is
sent.

With --watch the command keeps running and re-submits the file every
time it changes, so a cohort file can be edited live.

Example:
  studentlens batch -f cohort.json
  studentlens batch -f cohort.json --explain --watch`,
	RunE: runBatch,
}

// guidelinesCmd prints the pass guidelines
var guidelinesCmd = &cobra.Command{
	Use:   "guidelines",
	Short: "Show what helps students pass",
	Long: `Fetches the service's pass guidelines - the factors and thresholds
associated with passing - and renders them as a readable document.`,
	RunE: runGuidelines,
}

// configCmd manages the configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the studentlens configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE:  runConfigShow,
}

// versionCmd prints the CLI version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the studentlens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studentlens %s\n", version)
	},
}

// commandContext returns a context cancelled on Ctrl+C or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func newClient() *api.Client {
	return api.New(cfg.API.BaseURL, cfg.API.Timeout())
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	h, err := newClient().Health(ctx)
	if err != nil {
		return err
	}
	fmt.Println(formatHealth(h))
	if !h.Healthy() {
		return errors.New("service is not ready to predict")
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	rec, err := readRecord(file)
	if err != nil {
		return err
	}
	if errs := rec.CheckFields(); len(errs) > 0 {
		return fmt.Errorf("invalid record: %s", errs.Error())
	}

	ctx, cancel := commandContext()
	defer cancel()

	pred, err := newClient().Predict(ctx, rec)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(pred)
	}
	fmt.Println(formatPrediction(pred))
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")
	plotsDir, _ := cmd.Flags().GetString("save-plots")

	rec, err := readRecord(file)
	if err != nil {
		return err
	}
	if errs := rec.CheckFields(); len(errs) > 0 {
		return fmt.Errorf("invalid record: %s", errs.Error())
	}

	ctx, cancel := commandContext()
	defer cancel()

	expl, err := newClient().Explain(ctx, rec)
	if err != nil {
		return err
	}

	if asJSON {
		if err := printJSON(expl); err != nil {
			return err
		}
	} else {
		fmt.Println(formatExplanation(expl))
	}

	if plotsDir != "" {
		paths, err := expl.WritePlots(plotsDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("wrote", p)
		}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	withExplanations, _ := cmd.Flags().GetBool("explain")
	asJSON, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")

	if watch && (file == "" || file == "-") {
		return errors.New("--watch needs a records file, not stdin")
	}

	ctx, cancel := commandContext()
	defer cancel()

	client := newClient()
	log := logging.Get(logging.CategoryBatch)

	run := func() error {
		records, err := readRecords(file)
		if err != nil {
			return err
		}
		if err := validateRecords(records); err != nil {
			return err
		}
		log.Info("submitting batch",
			zap.Int("records", len(records)),
			zap.Bool("explanations", withExplanations))
		res, err := client.BatchPredict(ctx, records, withExplanations)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}
		fmt.Println(formatBatch(res))
		return nil
	}

	if err := run(); err != nil {
		if !watch {
			return err
		}
		// A bad first run is not fatal in watch mode; the next save
		// may fix it.
		fmt.Fprintln(os.Stderr, err)
	}
	if !watch {
		return nil
	}

	fmt.Fprintf(os.Stderr, "watching %s for changes (Ctrl+C to stop)\n", file)
	return watchRecords(ctx, file, func() {
		fmt.Fprintf(os.Stderr, "%s changed, re-running\n", file)
		if err := run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
}

func runGuidelines(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")

	ctx, cancel := commandContext()
	defer cancel()

	doc, err := newClient().PassGuidelines(ctx)
	if err != nil {
		return err
	}

	md := doc.Markdown()
	if raw {
		fmt.Print(md)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := cfgPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Default().Write(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// =============================================================================
// OUTPUT FORMATTING
// =============================================================================

func formatHealth(h *api.HealthStatus) string {
	state := "not ready"
	if h.Healthy() {
		state = "ready"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "status:       %s\n", h.Status)
	fmt.Fprintf(&b, "model loaded: %t\n", h.ModelLoaded)
	fmt.Fprintf(&b, "version:      %s\n", h.Version)
	fmt.Fprintf(&b, "timestamp:    %s\n", h.Timestamp)
	fmt.Fprintf(&b, "overall:      %s", state)
	return b.String()
}

func formatPrediction(pred *api.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student %d: %s (%.1f%% confidence)\n\n",
		pred.StudentID, pred.Prediction, pred.Confidence*100)
	for _, class := range api.Outcomes() {
		p := pred.Probabilities[class]
		fmt.Fprintf(&b, "  %-12s %s %5.1f%%\n", class, ui.Bar(p, 1, 24), p*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatExplanation(expl *api.Explanation) string {
	sections := []string{
		fmt.Sprintf("Student %d: %s", expl.StudentID, expl.Prediction),
	}
	if tbl := featureTable("Top SHAP factors", rank.TopSHAP(expl)); tbl != "" {
		sections = append(sections, "", tbl)
	}
	if tbl := featureTable("Top LIME factors", rank.TopLIME(expl)); tbl != "" {
		sections = append(sections, "", tbl)
	}
	if rows := rank.TopImportance(expl); len(rows) > 0 {
		tbl := ui.NewTable("Combined importance", "Feature", "Importance", "Direction")
		for _, r := range rows {
			tbl.AddRow(featureLabel(r.Feature), fmt.Sprintf("%.4f", r.Importance), r.Direction)
		}
		sections = append(sections, "", tbl.View(cliStyles))
	}
	return strings.Join(sections, "\n")
}

func featureTable(title string, feats []rank.Feature) string {
	if len(feats) == 0 {
		return ""
	}
	var maxAbs float64
	for _, ft := range feats {
		v := ft.Value
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	tbl := ui.NewTable(title, "Feature", "Weight", "")
	for _, ft := range feats {
		tbl.AddRow(featureLabel(ft.Name), fmt.Sprintf("%+.4f", ft.Value), ui.SignedBar(ft.Value, maxAbs, 7))
	}
	return tbl.View(cliStyles)
}

// featureLabel maps a feature's JSON name to its form label; engineered
// names that are not form fields pass through unchanged.
func featureLabel(name string) string {
	if spec, ok := student.Lookup(name); ok {
		return spec.Label
	}
	return name
}

func formatBatch(res *api.BatchResult) string {
	topFactor := make(map[int]string, len(res.Explanations))
	for _, e := range res.Explanations {
		if len(e.FeatureImportance) > 0 {
			topFactor[e.StudentID] = featureLabel(e.FeatureImportance[0].Feature)
		}
	}

	headers := []string{"Student", "Prediction", "Confidence"}
	if len(res.Explanations) > 0 {
		headers = append(headers, "Top factor")
	}
	tbl := ui.NewTable("", headers...)
	for _, p := range res.Predictions {
		row := []string{
			strconv.Itoa(p.StudentID),
			string(p.Prediction),
			fmt.Sprintf("%.1f%%", p.Confidence*100),
		}
		if len(res.Explanations) > 0 {
			row = append(row, topFactor[p.StudentID])
		}
		tbl.AddRow(row...)
	}

	summary := fmt.Sprintf("processed %d | ok %d | failed %d",
		res.TotalProcessed, res.SuccessCount, res.ErrorCount)
	if out := tbl.View(cliStyles); out != "" {
		return out + "\n" + summary
	}
	return summary
}
