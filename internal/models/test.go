package models

import (
	"strings"

	"github.com/google/uuid"
)

// Test types.
const (
	TestSelected = "selected"
	TestRandom   = "random"
	TestAuto     = "auto"
)

// Duration is the time limit of a test.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Test is a quiz built from questions. Query is the upper-cased title used
// for prefix search; UUID is the public share key.
type Test struct {
	UserID             string           `json:"userId,omitempty"`
	User               *UserRecord      `json:"user,omitempty"`
	Title              string           `json:"title,omitempty"`
	Instructions       string           `json:"instructions,omitempty"`
	QuestionsAmount    int              `json:"questionsAmount,omitempty"`
	ApprovalPercentage float64          `json:"approvalPercentage,omitempty"`
	UnlimitedTime      bool             `json:"unlimitedTime,omitempty"`
	Time               *Duration        `json:"time,omitempty"`
	Level              *Level           `json:"level,omitempty"`
	Type               string           `json:"type,omitempty"`
	Questions          []map[string]any `json:"questions"`
	Subjects           []string         `json:"subjects"`
	QuestionsNames     []string         `json:"questionsNames"`
	UserAttempts       map[string]int   `json:"userAttempts,omitempty"`
	UUID               string           `json:"uuid"`
	Query              string           `json:"query,omitempty"`
}

func (t *Test) Defaults() {
	if t.Questions == nil {
		t.Questions = []map[string]any{}
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	if t.QuestionsNames == nil {
		t.QuestionsNames = []string{}
	}
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}
	t.Query = strings.ToUpper(t.Title)
}
