package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
)

// timestampLayouts are tried in order for non-numeric timestamp cells
var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// LoadDataset reads cfg.FilePath and converts every row into an observation
func LoadDataset(cfg ImportConfig) (*observation.Dataset, error) {
	reader := NewDataReader(cfg.FilePath).WithSheet(cfg.Sheet)
	data, err := reader.ReadData()
	if err != nil {
		return nil, err
	}
	if cfg.IDColumn == "" || !hasHeader(data, cfg.IDColumn) {
		if col, err := reader.DetectEntityColumn(data); err == nil {
			cfg.IDColumn = col
		}
	}
	return ToDataset(data, cfg)
}

// ToDataset converts sheet rows into a dataset. Cells are typed on the fly:
// numbers, booleans and separator-joined lists are recognized, everything
// else stays a string. Empty cells are omitted.
func ToDataset(data *ExcelData, cfg ImportConfig) (*observation.Dataset, error) {
	name := cfg.DatasetName
	if name == "" {
		name = baseName(cfg.FilePath)
	}

	points := make([]observation.Observation, 0, len(data.Rows))
	for i, row := range data.Rows {
		p, err := toObservation(row, i, cfg)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		points = append(points, p)
	}

	ds := observation.NewDataset(name, sourceFor(points))
	ds.Append(points...)
	return ds, nil
}

func toObservation(row RawRowData, index int, cfg ImportConfig) (observation.Observation, error) {
	p := observation.Observation{
		ID:         row[cfg.IDColumn],
		Kind:       cfg.DefaultKind,
		Name:       row[cfg.NameColumn],
		Properties: observation.Properties{},
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("row_%d", index+1)
	}

	if raw := row[cfg.KindColumn]; raw != "" {
		k := observation.Kind(strings.ToLower(raw))
		if !k.IsValid() {
			return p, fmt.Errorf("%w: kind %q", core.ErrInvalidParameter, raw)
		}
		p.Kind = k
	}

	if raw := row[cfg.TimestampColumn]; raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return p, err
		}
		p.Timestamp = ts
	}

	var err error
	if p.Coordinates.X, err = parseCoordinate(row[cfg.XColumn]); err != nil {
		return p, fmt.Errorf("column %s: %w", cfg.XColumn, err)
	}
	if p.Coordinates.Y, err = parseCoordinate(row[cfg.YColumn]); err != nil {
		return p, fmt.Errorf("column %s: %w", cfg.YColumn, err)
	}

	reserved := map[string]bool{
		cfg.IDColumn:        true, cfg.KindColumn: true, cfg.NameColumn: true,
		cfg.TimestampColumn: true, cfg.XColumn: true, cfg.YColumn: true,
	}
	for col, raw := range row {
		if reserved[col] || raw == "" {
			continue
		}
		v := parseCell(raw, cfg.ListSeparator)
		if cfg.MetadataPrefix != "" && strings.HasPrefix(col, cfg.MetadataPrefix) {
			if p.Metadata == nil {
				p.Metadata = observation.Properties{}
			}
			p.Metadata[strings.TrimPrefix(col, cfg.MetadataPrefix)] = v
			continue
		}
		p.Properties[col] = v
	}
	return p, nil
}

func parseCell(raw, sep string) observation.Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return observation.Number(f)
	}
	switch strings.ToLower(raw) {
	case "true":
		return observation.Bool(true)
	case "false":
		return observation.Bool(false)
	}
	if sep != "" && strings.Contains(raw, sep) {
		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return observation.List(parts...)
	}
	return observation.String(raw)
}

func parseTimestamp(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return int64(core.ToMillis(t)), nil
		}
	}
	return 0, fmt.Errorf("%w: unparseable timestamp %q", core.ErrInvalidParameter, raw)
}

func parseCoordinate(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: coordinate %q", core.ErrInvalidParameter, raw)
	}
	return f, nil
}

// sourceFor labels a dataset by the kinds it holds
func sourceFor(points []observation.Observation) observation.Source {
	kinds := make(map[observation.Kind]bool)
	for i := range points {
		kinds[points[i].Kind] = true
	}
	if len(kinds) != 1 {
		return observation.SourceMixed
	}
	switch {
	case kinds[observation.KindSector]:
		return observation.SourceSectors
	case kinds[observation.KindAnomaly]:
		return observation.SourceAnomalies
	default:
		return observation.SourceResources
	}
}

func hasHeader(data *ExcelData, name string) bool {
	for _, h := range data.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	if path == "" {
		return "imported"
	}
	base := path[strings.LastIndexAny(path, "/\\")+1:]
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	return base
}

// WriteDataset writes ds to an xlsx file using the DefaultImportConfig layout.
// Property and metadata columns are sorted by name.
func WriteDataset(ds *observation.Dataset, path string) error {
	cfg := DefaultImportConfig()
	propCols, metaCols := columns(ds)

	header := []interface{}{cfg.IDColumn, cfg.KindColumn, cfg.NameColumn, cfg.TimestampColumn, cfg.XColumn, cfg.YColumn}
	for _, c := range propCols {
		header = append(header, c)
	}
	for _, c := range metaCols {
		header = append(header, cfg.MetadataPrefix+c)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(cfg.Sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range ds.Points {
		p := &ds.Points[i]
		row := []interface{}{p.ID, string(p.Kind), p.Name, p.Timestamp, p.Coordinates.X, p.Coordinates.Y}
		for _, c := range propCols {
			row = append(row, cellValue(p.Properties[c], cfg.ListSeparator))
		}
		for _, c := range metaCols {
			row = append(row, cellValue(p.Metadata[c], cfg.ListSeparator))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(cfg.Sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}

func columns(ds *observation.Dataset) (props, meta []string) {
	p, m := make(map[string]bool), make(map[string]bool)
	for i := range ds.Points {
		for k := range ds.Points[i].Properties {
			p[k] = true
		}
		for k := range ds.Points[i].Metadata {
			m[k] = true
		}
	}
	for k := range p {
		props = append(props, k)
	}
	for k := range m {
		meta = append(meta, k)
	}
	sort.Strings(props)
	sort.Strings(meta)
	return props, meta
}

func cellValue(v observation.Value, sep string) interface{} {
	if f, ok := v.Float(); ok {
		return f
	}
	if items, ok := v.Strings(); ok {
		return strings.Join(items, sep)
	}
	if !v.IsDefined() {
		return ""
	}
	return v.String()
}
