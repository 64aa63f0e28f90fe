package internal

type TokenKind string

const (
	TokenControl   TokenKind = "control"
	TokenIndicator TokenKind = "indicator"
)

// RawToken is one identifier-shaped substring found in a document.
type RawToken struct {
	Kind       TokenKind
	Text       string
	DocumentID string
	Offset     int
}

type DocumentCategory string

const (
	CategoryStandards DocumentCategory = "standards"
	CategoryRFC       DocumentCategory = "rfc"
	CategoryRoadmap   DocumentCategory = "roadmap"
)

type Document struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Category DocumentCategory `json:"category"`
	Path     string           `json:"path"`
	Content  string           `json:"-"`
}

// Baseline workbook column names.
const (
	ColumnSortID      = "SORT ID"
	ColumnControlName = "Control Name"
	ColumnFamily      = "Family"
	ColumnDescription = "NIST Control Description"
)

type BaselineRow struct {
	Sheet        string
	RowNumber    int
	Fields       map[string]string
	HasParameter bool
}

type CatalogEntry struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Family       string   `json:"family"`
	FamilyCode   string   `json:"familyCode"`
	Description  string   `json:"description"`
	Baselines    []string `json:"baselines"`
	InIndicator  bool     `json:"inIndicator"`
	HasParameter bool     `json:"hasParameter"`
}

type SearchField string

const (
	FieldID          SearchField = "id"
	FieldName        SearchField = "name"
	FieldDescription SearchField = "description"
)

type SearchResult struct {
	ID    string        `json:"id"`
	Entry *CatalogEntry `json:"entry"`
	Score int           `json:"score"`
}

type CrosswalkStatus string

const (
	StatusBoth      CrosswalkStatus = "Both"
	StatusLeftOnly  CrosswalkStatus = "Left Only"
	StatusRightOnly CrosswalkStatus = "Right Only"
)

type CrosswalkRow struct {
	ControlID string          `json:"controlId"`
	InLeft    bool            `json:"inLeft"`
	InRight   bool            `json:"inRight"`
	Status    CrosswalkStatus `json:"status"`
}

type FamilyBreakdown struct {
	Family    string `json:"family"`
	Both      int    `json:"both"`
	LeftOnly  int    `json:"leftOnly"`
	RightOnly int    `json:"rightOnly"`
	Total     int    `json:"total"`
}

type IndicatorCategory struct {
	Code string   `json:"code"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type HistoryEntry struct {
	ID          int64  `json:"id"`
	Query       string `json:"query"`
	ResultCount int    `json:"resultCount"`
	CreatedAt   string `json:"createdAt"`
}

type SavedSearch struct {
	Query     string `json:"query"`
	Options   string `json:"options"`
	CreatedAt string `json:"createdAt"`
}

type RunRecord struct {
	RunID     string             `json:"runId"`
	Kind      string             `json:"kind"`
	Timings   map[string]float64 `json:"timings"`
	Counts    map[string]int     `json:"counts"`
	CreatedAt string             `json:"createdAt"`
}
