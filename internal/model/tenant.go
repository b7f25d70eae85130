package model

import "time"

// Tenant is an isolated client organization with its own ledger and example set.
type Tenant struct {
	CreatedAt  time.Time `json:"created_at"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	AccessKey  string    `json:"-"`
	BaseFolder string    `json:"base_folder,omitempty"`
	ID         int64     `json:"id"`
}
