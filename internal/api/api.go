// Package api defines the JSON contract between the editor and the backend
// that owns the company map and exclusion tables.
package api

// Endpoint paths, relative to the backend base URL.
const (
	PathCompanyList    = "/api/company-list"
	PathCompanyMap     = "/api/company-map"
	PathCompanyExclude = "/api/company-exclude"
	PathSync           = "/api/config/sync"
)

// StatusSynced is the only sync status that counts as success.
const StatusSynced = "synced"

// MapRow merges one raw name under a standard name. Names carry no length cap
// because they come from imported records verbatim.
type MapRow struct {
	OriginalName string `json:"original_name" yaml:"original_name" validate:"required"`
	StandardName string `json:"standard_name" yaml:"standard_name" validate:"required"`
	Memo         string `json:"memo,omitempty" yaml:"memo,omitempty" validate:"max=500"`
}

// SyncRequest replaces the server's map and exclusion tables wholesale.
type SyncRequest struct {
	Maps     []MapRow `json:"maps" yaml:"maps" validate:"unique=OriginalName,dive"`
	Excludes []string `json:"excludes" yaml:"excludes" validate:"unique,dive,required"`
}

// SyncResponse is returned by the sync endpoint.
type SyncResponse struct {
	Status   string `json:"status"`
	Maps     int    `json:"maps"`
	Excludes int    `json:"excludes"`
}

// ExcludeRow is the body of the single-row exclusion endpoint.
type ExcludeRow struct {
	CompanyName string `json:"company_name" validate:"required"`
	Memo        string `json:"memo,omitempty" validate:"max=500"`
}

// Problem is an RFC 7807 error body.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}
