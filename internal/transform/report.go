package transform

// RecordError describes one record the transformer rejected. The raw keys are
// included so operators can spot systematically malformed source shapes.
type RecordError struct {
	UserID   string   `json:"user_id"`
	Err      string   `json:"error"`
	Provider string   `json:"provider"`
	HasEmail bool     `json:"has_email"`
	RawKeys  []string `json:"raw_data_keys"`
}

// DuplicateGroup records one natural-key value that appeared more than once.
type DuplicateGroup struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// DedupStats summarizes a deduplication pass over one batch.
type DedupStats struct {
	DuplicatesFound       int                       `json:"duplicates_found"`
	UniqueDuplicateValues int                       `json:"unique_duplicate_values"`
	InitialCount          int                       `json:"initial_count"`
	FinalCount            int                       `json:"final_count"`
	RemovedCount          int                       `json:"removed_count"`
	EmptyKeyDropped       int                       `json:"empty_key_dropped"`
	Method                string                    `json:"method"`
	Details               map[string]DuplicateGroup `json:"duplicate_details,omitempty"`
}

// Report aggregates one batch transformation. It is built fresh per run and
// returned by value; nothing in this package keeps cross-run state.
type Report struct {
	Successful int           `json:"successful_transformations"`
	Failed     int           `json:"failed_transformations"`
	Errors     []RecordError `json:"errors"`
	Dedup      DedupStats    `json:"deduplication_stats"`
}

// SuccessRate returns the percentage of records transformed successfully.
func (r *Report) SuccessRate() float64 {
	total := r.Successful + r.Failed
	if total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(total) * 100
}
