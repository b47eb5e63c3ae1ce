package survey

import "time"

// CategoryRequest asks for category scores of a dataset under filters.
type CategoryRequest struct {
	Dataset string  `json:"dataset"`
	Filters Filters `json:"filters"`
}

// QuestionRequest asks for the per-question detail of one category.
type QuestionRequest struct {
	Dataset  string  `json:"dataset"`
	Category string  `json:"category"`
	Filters  Filters `json:"filters"`
	Sort     string  `json:"sort"`
}

// ScoreView is the cacheable result of a score computation.
type ScoreView struct {
	Dataset     string          `json:"dataset"`
	Fingerprint string          `json:"fingerprint"`
	Respondents int             `json:"respondents"`
	NoData      bool            `json:"noData"`
	Category    string          `json:"category,omitempty"`
	Categories  []CategoryScore `json:"categories,omitempty"`
	Questions   []QuestionScore `json:"questions,omitempty"`
	Missing     []string        `json:"missing,omitempty"`
	ComputedAt  time.Time       `json:"computedAt"`
}

// CategoryScoresResponse is returned to the transport.
type CategoryScoresResponse struct {
	Dataset     string          `json:"dataset"`
	Respondents int             `json:"respondents"`
	NoData      bool            `json:"noData"`
	Categories  []CategoryScore `json:"categories"`
	Cached      bool            `json:"cached"`
}

// QuestionScoresResponse is returned to the transport.
type QuestionScoresResponse struct {
	Dataset     string          `json:"dataset"`
	Category    string          `json:"category"`
	Respondents int             `json:"respondents"`
	NoData      bool            `json:"noData"`
	Questions   []QuestionScore `json:"questions"`
	Missing     []string        `json:"missing"`
	Cached      bool            `json:"cached"`
}

// FilterOptions lists the choices a dashboard offers for each filter. Column
// maps each filter to the table column its values compare against.
type FilterOptions struct {
	Dataset     string            `json:"dataset"`
	Respondents int               `json:"respondents"`
	Ages        []string          `json:"ages"`
	Genders     []string          `json:"genders"`
	Programs    []string          `json:"programs"`
	Statuses    []string          `json:"statuses"`
	Columns     map[string]string `json:"columns"`
}

// DatasetInfo describes a configured dataset.
type DatasetInfo struct {
	Name       string   `json:"name"`
	Default    bool     `json:"default"`
	Driver     string   `json:"driver"`
	Categories []string `json:"categories"`
}

// DatasetStatus reports a freshly loaded table.
type DatasetStatus struct {
	Dataset     string    `json:"dataset"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	Encoding    string    `json:"encoding"`
	Fingerprint string    `json:"fingerprint"`
	LoadedAt    time.Time `json:"loadedAt"`
}
