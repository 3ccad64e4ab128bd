package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

const sampleCSV = `id,kind,name,timestamp,x,y,resourceType,amount,scanned,tags,meta.detector
r1,resource,Vein A,1000,10,20,minerals,40,true,deep|rich,probe
r2,resource,,2025-01-01,11.5,21,gas,12.5,false,,
s1,sector,Outpost,2025-01-01T06:00:00Z,0,0,,,,,
,,,,,,,,,,
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	path := writeFile(t, "scan.csv", sampleCSV)

	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	assert.Len(t, data.Headers, 11)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "Vein A", data.Rows[0]["name"])
}

func TestReadDataErrors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv")).ReadData()
	assert.ErrorContains(t, err, "CSV file not found")

	path := writeFile(t, "header.csv", "id,x,y\n")
	_, err = NewDataReader(path).ReadData()
	assert.ErrorContains(t, err, "at least a header row")
}

func TestLoadDatasetFromCSV(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = writeFile(t, "scan.csv", sampleCSV)

	ds, err := LoadDataset(cfg)
	require.NoError(t, err)
	assert.Equal(t, "scan", ds.Name)
	assert.Equal(t, observation.SourceMixed, ds.Source)
	require.Len(t, ds.Points, 3)

	r1 := ds.Points[0]
	assert.Equal(t, "r1", r1.ID)
	assert.Equal(t, observation.KindResource, r1.Kind)
	assert.Equal(t, int64(1000), r1.Timestamp)
	assert.Equal(t, observation.Coordinates{X: 10, Y: 20}, r1.Coordinates)
	assert.Equal(t, observation.Number(40), r1.Properties["amount"])
	assert.Equal(t, observation.Bool(true), r1.Properties["scanned"])
	assert.Equal(t, observation.List("deep", "rich"), r1.Properties["tags"])
	assert.Equal(t, observation.String("probe"), r1.Metadata["detector"])
	_, hasName := r1.Properties["name"]
	assert.False(t, hasName, "mapped columns are not copied into properties")

	r2 := ds.Points[1]
	assert.Empty(t, r2.Name)
	assert.NotContains(t, r2.Properties, "tags")
	assert.Nil(t, r2.Metadata)

	s1 := ds.Points[2]
	assert.Equal(t, observation.KindSector, s1.Kind)
	assert.Empty(t, s1.Properties)
	assert.Equal(t, r2.Timestamp+6*3600*1000, s1.Timestamp)
}

func TestLoadDatasetRejectsBadCells(t *testing.T) {
	cfg := DefaultImportConfig()

	cfg.FilePath = writeFile(t, "kind.csv", "id,kind,x,y\na,planet,1,2\n")
	_, err := LoadDataset(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	assert.ErrorContains(t, err, "row 2")

	cfg.FilePath = writeFile(t, "coord.csv", "id,kind,x,y\na,resource,east,2\n")
	_, err = LoadDataset(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	cfg.FilePath = writeFile(t, "ts.csv", "id,timestamp\na,yesterday\n")
	_, err = LoadDataset(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestLoadDatasetDetectsEntityColumn(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = writeFile(t, "keys.csv", "point_id,x,y,amount\np1,1,1,5\np2,2,2,6\n")

	ds, err := LoadDataset(cfg)
	require.NoError(t, err)
	require.Len(t, ds.Points, 2)
	assert.Equal(t, "p1", ds.Points[0].ID)
	assert.Equal(t, observation.SourceResources, ds.Source)
}

func TestGeneratedIDsWhenColumnMissing(t *testing.T) {
	data := &ExcelData{
		Headers: []string{"amount"},
		Rows:    []RawRowData{{"amount": "1"}, {"amount": "1"}},
	}
	ds, err := ToDataset(data, DefaultImportConfig())
	require.NoError(t, err)
	assert.Equal(t, "row_1", ds.Points[0].ID)
	assert.Equal(t, "row_2", ds.Points[1].ID)
	assert.Equal(t, "imported", ds.Name)
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	ds := observation.NewDataset("survey", observation.SourceMixed)
	ds.Append(
		observation.Observation{
			ID:          "r1", Kind: observation.KindResource, Name: "Vein", Timestamp: 1735689600000,
			Coordinates: observation.Coordinates{X: 12.5, Y: -3},
			Properties: observation.Properties{
				"amount":       observation.Number(40),
				"resourceType": observation.String("gas"),
				"tags":         observation.List("a", "b"),
			},
			Metadata: observation.Properties{"detector": observation.String("probe")},
		},
		observation.Observation{
			ID:          "a1", Kind: observation.KindAnomaly, Timestamp: 1735689660000,
			Coordinates: observation.Coordinates{X: 1, Y: 2},
			Properties:  observation.Properties{"energy": observation.Number(0.75)},
		},
	)

	path := filepath.Join(t.TempDir(), "survey.xlsx")
	require.NoError(t, WriteDataset(ds, path))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	got, err := LoadDataset(cfg)
	require.NoError(t, err)
	assert.Equal(t, "survey", got.Name)
	require.Len(t, got.Points, 2)

	for i := range ds.Points {
		want, have := ds.Points[i], got.Points[i]
		assert.Equal(t, want.ID, have.ID)
		assert.Equal(t, want.Kind, have.Kind)
		assert.Equal(t, want.Name, have.Name)
		assert.Equal(t, want.Timestamp, have.Timestamp)
		assert.Equal(t, want.Coordinates, have.Coordinates)
		assert.Equal(t, want.Properties, have.Properties)
		assert.Equal(t, want.Metadata, have.Metadata)
	}
}
