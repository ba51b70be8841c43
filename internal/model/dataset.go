package model

// Dataset is one complete fetch cycle across all upstream sources. The
// merge step only ever sees a whole dataset: if any source fails, no
// dataset is produced.
type Dataset struct {
	Events   []Event   `json:"events"`
	Orders   []Order   `json:"orders"`
	Groups   []Group   `json:"groups"`
	Contacts []Contact `json:"contacts"`
}
