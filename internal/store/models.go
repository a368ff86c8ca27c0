package store

import (
	"time"

	"github.com/google/uuid"
)

// Config keys.
const (
	ConfigAuthToken = "auth_token"
	ConfigDeviceID  = "device_id"
)

// Session is the persisted state of one script, keyed by its absolute path.
// Document is the YAML storage document written by the session package.
type Session struct {
	ID            string    `json:"id"`
	ScriptPath    string    `json:"script_path"`
	Document      []byte    `json:"-"`
	CurrentOutput int       `json:"current_output"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
