package models

import "time"

// Counter field paths inside the data-size document.
const (
	FieldRequestsGeneral  = "question-requests.general"
	FieldRequestsUsers    = "question-requests.users"
	FieldQuestionsGeneral = "questions.general"
	FieldQuestionsSubject = "questions.subject"
	FieldTests            = "tests"
	FieldTestsByWeek      = "testsByWeek"
	FieldUsers            = "users"
)

// Amount is a total plus a breakdown by user id or by subject name.
type Amount struct {
	General int            `json:"general"`
	Users   map[string]int `json:"users,omitempty"`
	Subject map[string]int `json:"subject,omitempty"`
}

// DataSize is the singleton document of aggregate counters.
type DataSize struct {
	QuestionRequests Amount         `json:"question-requests"`
	Questions        Amount         `json:"questions"`
	Tests            int            `json:"tests,omitempty"`
	TestsByWeek      map[string]int `json:"testsByWeek"`
	Users            int            `json:"users,omitempty"`
}

func (d *DataSize) Defaults() {
	if d.QuestionRequests.Users == nil {
		d.QuestionRequests.Users = map[string]int{}
	}
	if d.Questions.Subject == nil {
		d.Questions.Subject = map[string]int{}
	}
	if d.TestsByWeek == nil {
		d.TestsByWeek = map[string]int{}
	}
}

// WeekStart is the testsByWeek key of t: the date of the Sunday starting
// its week.
func WeekStart(t time.Time) string {
	return t.AddDate(0, 0, -int(t.Weekday())).Format("2006-01-02")
}
