// Package models holds the data structs stored in each collection. Records
// wrap them in entity.Record for identity, timestamps and soft deletion.
package models

import "github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"

// Collection names.
const (
	QuestionsCollection = "questions"
	RequestsCollection  = "question-requests"
	TestsCollection     = "tests"
	SubjectsCollection  = "subjects"
	UsersCollection     = "users"
	DataSizeCollection  = "data-size"
	BackupsCollection   = "backups"
	LogsCollection      = "logs"
)

// Record aliases, one per collection.
type (
	QuestionRecord = entity.Record[Question]
	RequestRecord  = entity.Record[Request]
	TestRecord     = entity.Record[Test]
	SubjectRecord  = entity.Record[Subject]
	UserRecord     = entity.Record[User]
	DataSizeRecord = entity.Record[DataSize]
	BackupRecord   = entity.Record[Backup]
	LogRecord      = entity.Record[Log]
)

// Level is a difficulty level: 0 beginner, 1 intermediary, 2 advanced, 3 expert.
type Level struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}
