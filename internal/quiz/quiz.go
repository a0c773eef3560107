// Package quiz holds the per-collection repositories of the quiz backend
// and their composite operations. Composite operations perform one primary
// write and then run a saga of secondary writes (subject lists, counters)
// that are logged on failure and never rolled back.
package quiz

import (
	"errors"
	"strings"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/cache"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
)

// Repos is the set of collection repositories. Build it once with New and
// pass it to the HTTP handlers and maintenance jobs.
type Repos struct {
	Questions *Questions
	Requests  *Requests
	Tests     *Tests
	Subjects  *Subjects
	Users     *Users
	DataSize  *DataSizes
	Backups   *Backups
	Logs      *Logs
}

// New wires every repository to the same store. files may be nil when
// uploads are not needed; users may be nil to disable snapshot caching.
func New(store docstore.Store, files storage.FileStore, users cache.Users) *Repos {
	if users == nil {
		users = cache.Nop{}
	}
	r := &Repos{}
	r.Logs = newLogs(store)
	r.DataSize = newDataSizes(store)
	r.Subjects = newSubjects(store)
	r.Users = newUsers(store, files, users, r.DataSize, r.Logs)
	r.Questions = newQuestions(store, files, r.Subjects, r.DataSize, r.Logs)
	r.Requests = newRequests(store, files, r.Users, r.DataSize, r.Logs)
	r.Tests = newTests(store, r.Users, r.DataSize, r.Logs)
	r.Backups = newBackups(store)
	return r
}

// prefixSearch matches field values starting with text, upper-cased. The
// upper bound is text followed by "~", so names continuing with characters
// past "~" are not matched.
func prefixSearch(field, text string) []query.Where {
	text = strings.ToUpper(text)
	where := []query.Where{query.Filter(field, query.GreaterOrEqual, text)}
	if text != "" {
		where = append(where, query.Filter(field, query.LessOrEqual, text+"~"))
	}
	return where
}

func byField(field string, value any) query.Query {
	return query.Query{Where: []query.Where{query.Filter(field, query.Equal, value)}}
}

// without copies fields minus the given keys.
func without(fields entity.Fields, keys ...string) entity.Fields {
	out := make(entity.Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
