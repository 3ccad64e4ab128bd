package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/adapters/excel"
	"sprawlstats/domain/analysis"
	"sprawlstats/internal/testkit"
)

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.csv")
	body := "id,kind,x,y,resourceType,amount\n" +
		"r1,resource,0,0,minerals,10\n" +
		"r2,resource,1,0,minerals,20\n" +
		"r3,resource,2,0,gas,30\n" +
		"r4,resource,3,0,gas,40\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunAnalyzeJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	cfg := excel.DefaultImportConfig()
	cfg.FilePath = writeCSV(t)

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, cfg, analysis.TypeDistribution, "", map[string]interface{}{"field": "amount", "bins": 2}, nil, "json")
	require.NoError(t, err)

	var result analysis.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, analysis.StatusCompleted, result.Status)
	assert.Equal(t, "distribution:scan", result.ConfigID)
	require.NotNil(t, result.Data.Distribution)
}

func TestRunAnalyzeReportsFailure(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	cfg := excel.DefaultImportConfig()
	cfg.FilePath = writeCSV(t)

	var out bytes.Buffer
	err := runAnalyze(context.Background(), &out, cfg, analysis.TypeDistribution, "dist", nil, nil, "text")
	assert.ErrorContains(t, err, "VALIDATION_ERROR")
	assert.Contains(t, out.String(), "[failed]")
}

func TestRunDemoExports(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	genCfg := testkit.DefaultExplorationConfig()
	export := filepath.Join(t.TempDir(), "demo.xlsx")

	var out bytes.Buffer
	_ = runDemo(context.Background(), &out, genCfg, export)
	assert.Contains(t, out.String(), "Generated dataset")
	for _, typ := range analysis.Types {
		assert.Contains(t, out.String(), "== "+string(typ))
	}

	imported := excel.DefaultImportConfig()
	imported.FilePath = export
	ds, err := excel.LoadDataset(imported)
	require.NoError(t, err)
	assert.Equal(t, genCfg.SectorCount+genCfg.AnomalyCount+genCfg.ResourceCount, ds.Len())
}

func TestParseJSONObject(t *testing.T) {
	got, err := parseJSONObject(`{"field":"amount"}`)
	require.NoError(t, err)
	assert.Equal(t, "amount", got["field"])

	got, err = parseJSONObject("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseJSONObject("[1]")
	assert.Error(t, err)
}
