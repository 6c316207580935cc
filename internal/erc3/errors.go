package erc3

import "fmt"

// APIError is a platform-reported failure: denial, not-found, validation,
// or server fault. It is data for the reasoning loop, not a crash.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("erc3: %s: %s", e.Message, e.Detail)
	}
	return "erc3: " + e.Message
}
