package snapshot

import "context"

// GlobalIndexDocument is the outbound published document spec.md §6
// defines.
type GlobalIndexDocument struct {
	Version    string                        `json:"version"`
	GlobalRoot string                        `json:"global_root"`
	Timestamp  string                        `json:"timestamp"`
	LeafModel  string                        `json:"leaf_model"`
	Countries  map[string]CountryIndexEntry  `json:"countries"`
}

// CountryIndexEntry is one country's entry within the global index
// document.
type CountryIndexEntry struct {
	CID         string `json:"cid"`
	Root        string `json:"root"`
	Cells       int    `json:"cells"`
	Slots       int    `json:"slots"`
	SizeMB      float64 `json:"size_mb"`
	LastUpdated string `json:"last_updated"`
}

// CountryDocument is the outbound per-country document spec.md §6
// defines.
type CountryDocument struct {
	Country string                      `json:"country"`
	Root    string                      `json:"root"`
	Regions map[string]CountryRegion    `json:"regions"`
	Cells   []CountryDocumentCell       `json:"cells"`
}

// CountryRegion is one region's summary within a CountryDocument.
type CountryRegion struct {
	Root  string `json:"root"`
	Cells int    `json:"cells"`
}

// CountryDocumentCell is one cell's published record within a
// CountryDocument.
type CountryDocumentCell struct {
	CellID         string   `json:"cell_id"`
	LeafHash       string   `json:"leaf_hash"`
	DistrictHashes []string `json:"district_hashes"`
	DistrictIDs    []string `json:"district_ids"`
}

// Publisher is the content-addressed publishing capability (spec.md §6:
// "pinning service credentials via Publisher; no direct reads of
// environment variables by the core"). Defining this interface is the
// in-scope requirement; a production pinning-service client sits
// outside the core's tested surface.
type Publisher interface {
	PublishGlobalIndex(ctx context.Context, doc GlobalIndexDocument) (contentAddress string, err error)
	PublishCountryDocument(ctx context.Context, countryCode string, doc CountryDocument) (contentAddress string, err error)
}
