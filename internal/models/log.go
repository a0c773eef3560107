package models

// LogUser identifies who triggered a logged error.
type LogUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Log is a persisted error entry. Payload is JSON text.
type Log struct {
	Date    string   `json:"date,omitempty"`
	Message string   `json:"message,omitempty"`
	Type    string   `json:"type,omitempty"`
	Payload string   `json:"payload,omitempty"`
	User    *LogUser `json:"user,omitempty"`
}

// SystemUser signs log entries written by scheduled jobs.
var SystemUser = LogUser{ID: "cloudquiz-maintenance", Name: "Maintenance Jobs", Email: "no@email.com"}
