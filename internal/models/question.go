package models

import "strings"

const defaultImageSize = "1x"

// Answer is one alternative of a question. AnsID is the radio id
// ("radio-1" to "radio-4").
type Answer struct {
	AnsID       string `json:"ansId"`
	Description string `json:"description"`
	Text        string `json:"text"`
	Value       bool   `json:"value"`
}

// Question is a multiple choice question. Name is its upper-cased unique key.
type Question struct {
	AnswerJustification       string   `json:"answerJustification,omitempty"`
	AnswerJustificationSource string   `json:"answerJustificationSource,omitempty"`
	Answers                   []Answer `json:"answers"`
	Image                     string   `json:"image,omitempty"`
	ImageSize                 string   `json:"imageSize,omitempty"`
	Level                     *Level   `json:"level,omitempty"`
	MultipleAnswers           bool     `json:"multipleAnswers,omitempty"`
	Name                      string   `json:"name"`
	Question                  string   `json:"question,omitempty"`
	Subject                   string   `json:"subject,omitempty"`
}

func (q *Question) Defaults() {
	if q.Answers == nil {
		q.Answers = []Answer{}
	}
	if q.ImageSize == "" {
		q.ImageSize = defaultImageSize
	}
	q.Name = strings.ToUpper(q.Name)
}

// LevelIndex returns the level index, 0 when unset.
func (q *Question) LevelIndex() int {
	if q.Level == nil {
		return 0
	}
	return q.Level.Index
}

// Request statuses.
const (
	StatusPending  = "0-pendant"
	StatusRejected = "1-rejected"
	StatusApproved = "2-approved"
)

// Request is a question proposed by a user, waiting for approval. User is
// the author snapshot attached on read and never stored.
type Request struct {
	AnswerJustification       string      `json:"answerJustification,omitempty"`
	AnswerJustificationSource string      `json:"answerJustificationSource,omitempty"`
	Answers                   []Answer    `json:"answers"`
	Image                     string      `json:"image,omitempty"`
	ImageSize                 string      `json:"imageSize,omitempty"`
	Level                     *Level      `json:"level,omitempty"`
	MultipleAnswers           bool        `json:"multipleAnswers,omitempty"`
	Name                      string      `json:"name"`
	Question                  string      `json:"question,omitempty"`
	Subject                   string      `json:"subject,omitempty"`
	Status                    string      `json:"status,omitempty"`
	UserID                    string      `json:"userId,omitempty"`
	User                      *UserRecord `json:"user,omitempty"`
}

func (r *Request) Defaults() {
	if r.Answers == nil {
		r.Answers = []Answer{}
	}
	if r.ImageSize == "" {
		r.ImageSize = defaultImageSize
	}
}
