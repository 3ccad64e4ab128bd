package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sprawlstats/adapters/excel"
	"sprawlstats/adapters/memory"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/observation"
	"sprawlstats/internal/config"
	"sprawlstats/internal/engine"
	"sprawlstats/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "sprawl-cli",
		Short:         "Run exploration analyses against observation datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session bundles an engine with the in-memory stores it writes to
type session struct {
	engine   *engine.Engine
	datasets *memory.DatasetRepository
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	datasets := memory.NewDatasetRepository()
	eng := engine.NewFromConfig(cfg, memory.NewResultStore(), datasets)
	eng.Open()
	return &session{engine: eng, datasets: datasets}, nil
}

func (s *session) Close() { s.engine.Close() }

func newAnalyzeCmd() *cobra.Command {
	var (
		analysisType string
		configID     string
		paramsJSON   string
		optionsJSON  string
		sheet        string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Run one analysis on an .xlsx or .csv observation file",
		Long: `Load observations from a spreadsheet and run a single analysis.

Columns id, kind, name, timestamp, x and y map onto observation fields; every
other column becomes a property and meta.* columns become metadata.

Example: sprawl-cli analyze scan.xlsx --type distribution --params '{"field":"amount","bins":8}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseJSONObject(paramsJSON)
			if err != nil {
				return fmt.Errorf("invalid --params: %w", err)
			}
			var opts *analysis.Options
			if optionsJSON != "" {
				opts = &analysis.Options{}
				if err := json.Unmarshal([]byte(optionsJSON), opts); err != nil {
					return fmt.Errorf("invalid --options: %w", err)
				}
			}

			importCfg := excel.DefaultImportConfig()
			importCfg.FilePath = args[0]
			if sheet != "" {
				importCfg.Sheet = sheet
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), importCfg, analysis.Type(analysisType), configID, params, opts, output)
		},
	}

	cmd.Flags().StringVar(&analysisType, "type", string(analysis.TypeDistribution), "Analysis type: "+typeNames())
	cmd.Flags().StringVar(&configID, "config-id", "", "Config id (default: derived from type and file)")
	cmd.Flags().StringVar(&paramsJSON, "params", "", "Analysis parameters as a JSON object")
	cmd.Flags().StringVar(&optionsJSON, "options", "", "Analysis options as a JSON object")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from .xlsx files")
	cmd.Flags().StringVar(&output, "output", "text", "Output format: text|json")
	return cmd
}

func runAnalyze(ctx context.Context, w io.Writer, importCfg excel.ImportConfig, typ analysis.Type, configID string, params map[string]interface{}, opts *analysis.Options, output string) error {
	ds, err := excel.LoadDataset(importCfg)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.datasets.Put(ctx, ds); err != nil {
		return err
	}

	if configID == "" {
		configID = fmt.Sprintf("%s:%s", typ, ds.Name)
	}
	cfg := &analysis.Config{ID: configID, AnalysisType: typ, DatasetID: ds.ID, Parameters: params}
	result := s.engine.RunAnalysis(ctx, cfg, ds, opts)

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(w, ds, result)
	if result.Status == analysis.StatusFailed {
		return fmt.Errorf("analysis failed (%s)", result.ErrorCode)
	}
	return nil
}

func newDemoCmd() *cobra.Command {
	var (
		seed      uint64
		sectors   int
		anomalies int
		resources int
		export    string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a synthetic exploration dataset and run every analysis type",
		Long: `Generate sectors, anomalies and resources with the test kit and run each
analysis type against them.

Example: sprawl-cli demo --seed 7 --resources 400 --export demo.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			genCfg := testkit.DefaultExplorationConfig()
			genCfg.Seed = seed
			genCfg.SectorCount = sectors
			genCfg.AnomalyCount = anomalies
			genCfg.ResourceCount = resources
			return runDemo(cmd.Context(), cmd.OutOrStdout(), genCfg, export)
		},
	}

	defaults := testkit.DefaultExplorationConfig()
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "Random seed for the generator")
	cmd.Flags().IntVar(&sectors, "sectors", defaults.SectorCount, "Number of sector observations")
	cmd.Flags().IntVar(&anomalies, "anomalies", defaults.AnomalyCount, "Number of anomaly observations")
	cmd.Flags().IntVar(&resources, "resources", defaults.ResourceCount, "Number of resource observations")
	cmd.Flags().StringVar(&export, "export", "", "Also write the generated dataset to this .xlsx file")
	return cmd
}

// demoConfigs returns one config per analysis type tuned to the generator's
// property layout
func demoConfigs(datasetID string) []*analysis.Config {
	mk := func(typ analysis.Type, params map[string]interface{}) *analysis.Config {
		return &analysis.Config{ID: "demo-" + string(typ), AnalysisType: typ, DatasetID: datasetID, Parameters: params}
	}
	return []*analysis.Config{
		mk(analysis.TypeTrend, map[string]interface{}{"yField": "energy", "windowSize": 5}),
		mk(analysis.TypeCorrelation, map[string]interface{}{"fields": []string{"amount", "quality", "accessibility", "estimatedValue"}}),
		mk(analysis.TypeDistribution, map[string]interface{}{"field": "amount", "bins": 8, "groupBy": "resourceType"}),
		mk(analysis.TypeClustering, map[string]interface{}{"features": []string{"coordinates.x", "coordinates.y"}, "k": 4}),
		mk(analysis.TypePrediction, map[string]interface{}{"targetField": "estimatedValue", "features": []string{"amount", "quality"}}),
		mk(analysis.TypeComparison, map[string]interface{}{"field": "amount", "groupBy": "resourceType"}),
		mk(analysis.TypeResourceMapping, nil),
		mk(analysis.TypeSectorAnalysis, map[string]interface{}{"radius": 150, "limit": 5}),
	}
}

func runDemo(ctx context.Context, w io.Writer, genCfg testkit.ExplorationGeneratorConfig, export string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ds := testkit.NewExplorationGenerator(genCfg).Generate("demo")
	if err := s.datasets.Put(ctx, ds); err != nil {
		return err
	}
	fmt.Fprintf(w, "Generated dataset %s: %d points %v\n", ds.ID, ds.Len(), ds.CountByKind())

	if export != "" {
		if err := excel.WriteDataset(ds, export); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(w, "Exported dataset to %s\n", export)
	}

	configs := demoConfigs(ds.ID)
	failed := 0
	for _, cfg := range configs {
		start := time.Now()
		result := s.engine.RunAnalysis(ctx, cfg, ds, nil)
		fmt.Fprintf(w, "\n== %s (%s)\n", cfg.AnalysisType, time.Since(start).Round(time.Microsecond))
		printResult(w, ds, result)
		if result.Status == analysis.StatusFailed {
			failed++
		}
	}

	stats := s.engine.CacheStats()
	fmt.Fprintf(w, "\nCache: %d entries, %d hits, %d misses\n", stats.Entries, stats.Hits, stats.Misses)
	if failed > 0 {
		return fmt.Errorf("%d of %d demo analyses failed", failed, len(configs))
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func printResult(w io.Writer, ds *observation.Dataset, r *analysis.Result) {
	fmt.Fprintf(w, "Result %s [%s] dataset=%s\n", r.ID, r.Status, ds.Name)
	if r.Status == analysis.StatusFailed {
		fmt.Fprintf(w, "  error (%s): %s\n", r.ErrorCode, r.Error)
		return
	}
	fmt.Fprintf(w, "  %s\n", r.Summary)
	for _, insight := range r.Insights {
		fmt.Fprintf(w, "  - %s\n", insight)
	}
	if r.Data != nil {
		fmt.Fprintf(w, "  mode=%s points=%d duration=%dms\n", r.Data.Execution.Mode, r.Data.Execution.PointCount, r.Data.Execution.DurationMs)
	}
}

func parseJSONObject(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func typeNames() string {
	names := make([]string, len(analysis.Types))
	for i, t := range analysis.Types {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}
