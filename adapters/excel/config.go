package excel

import (
	"sprawlstats/domain/observation"
)

// ImportConfig maps sheet columns onto observation fields. Columns not named
// here become properties; columns starting with MetadataPrefix become
// metadata with the prefix removed.
type ImportConfig struct {
	FilePath        string           `json:"file_path"`
	Sheet           string           `json:"sheet"`
	DatasetName     string           `json:"dataset_name"`
	IDColumn        string           `json:"id_column"`
	KindColumn      string           `json:"kind_column"`
	NameColumn      string           `json:"name_column"`
	TimestampColumn string           `json:"timestamp_column"`
	XColumn         string           `json:"x_column"`
	YColumn         string           `json:"y_column"`
	MetadataPrefix  string           `json:"metadata_prefix"`
	ListSeparator   string           `json:"list_separator"`
	DefaultKind     observation.Kind `json:"default_kind"`
}

// DefaultImportConfig returns the column layout written by WriteDataset
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Sheet:           "Sheet1",
		IDColumn:        "id",
		KindColumn:      "kind",
		NameColumn:      "name",
		TimestampColumn: "timestamp",
		XColumn:         "x",
		YColumn:         "y",
		MetadataPrefix:  "meta.",
		ListSeparator:   "|",
		DefaultKind:     observation.KindResource,
	}
}
