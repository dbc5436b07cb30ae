package dto

// BlockList enumerates the users blocked by the caller.
type BlockList struct {
	Blocked []string `json:"blocked"`
}
