package branches

import "time"

// Branch is a sales/distribution location. Exactly one branch is expected to
// carry the HQ flag, but that is a data convention, not a constraint the
// repository enforces.
type Branch struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	IsHQ        bool      `json:"is_hq"`
	ManagerName string    `json:"manager_name"`
	Contact     string    `json:"contact"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
