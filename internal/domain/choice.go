package domain

// Choice is one selectable answer extracted from approval prompt text.
type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}
