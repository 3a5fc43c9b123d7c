package punch

// SyncResult reports one pull from a device source into the punch store.
type SyncResult struct {
	RunID      string   `json:"run_id"`
	Source     string   `json:"source"`
	Fetched    int      `json:"fetched"`
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Unmapped   int      `json:"unmapped"`
	Rejected   []string `json:"rejected,omitempty"`
}
