package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type card struct {
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	Ratio    float64        `json:"ratio"`
	Done     bool           `json:"done"`
	Tags     []string       `json:"tags"`
	Level    *level         `json:"level,omitempty"`
	Attempts map[string]int `json:"attempts"`
	Owner    *Record[owner] `json:"owner,omitempty"`
	Kind     string         `json:"kind"`
}

func (c *card) Defaults() {
	if c.Kind == "" {
		c.Kind = "basic"
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

func fixedClock(t *testing.T) {
	restore := SetClock(func() time.Time { return time.Date(2021, 7, 4, 13, 5, 9, 42e6, time.Local) })
	t.Cleanup(restore)
}

func TestNowISOString_LocalWallClockWithLiteralZ(t *testing.T) {
	fixedClock(t)
	require.Equal(t, "2021-07-04T13:05:09.042Z", NowISOString())

	parsed, err := ParseTimestamp("2021-07-04T13:05:09.042Z")
	require.NoError(t, err)
	require.Equal(t, 13, parsed.Hour())
}

func TestNew_AppliesDefaultsAndTimestamps(t *testing.T) {
	fixedClock(t)
	r := New(card{Title: "t"})
	assert.Equal(t, "basic", r.Data.Kind)
	assert.Equal(t, "2021-07-04T13:05:09.042Z", r.Created)
	assert.Equal(t, r.Created, r.Updated)
	assert.Nil(t, r.ToDelete)
	assert.Empty(t, r.ID)
}

func TestToMap_DropsFalsyFieldsOnly(t *testing.T) {
	r := New(card{Title: "t", Count: 0, Done: false, Ratio: 0.5, Attempts: map[string]int{}})
	r.ID = "abc"
	m := r.ToMap()

	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "count")
	assert.NotContains(t, m, "done")
	assert.NotContains(t, m, "toDelete")
	assert.NotContains(t, m, "level")
	assert.Equal(t, "t", m["title"])
	assert.Equal(t, 0.5, m["ratio"])
	// empty collections are truthy and survive
	assert.Equal(t, []any{}, m["tags"])
	assert.Equal(t, map[string]any{}, m["attempts"])
}

func TestToMap_KeepsNestedFalseStatus(t *testing.T) {
	r := New(card{Title: "t"})
	r.ToDelete = &ToDelete{Status: false}
	m := r.ToMap()
	require.Contains(t, m, "toDelete")
	assert.Equal(t, map[string]any{"status": false}, m["toDelete"])
}

func TestFromMap_RoundTripsTruthyFields(t *testing.T) {
	orig := New(card{
		Title:    "round",
		Count:    3,
		Ratio:    1.5,
		Done:     true,
		Tags:     []string{"a", "b"},
		Level:    &level{Index: 2, Name: "hard"},
		Attempts: map[string]int{"u1": 2},
		Kind:     "special",
	})
	orig.ToDelete = &ToDelete{Status: true, UserEmail: "x@example.com"}

	back, err := FromMap[card](orig.ToMap())
	require.NoError(t, err)
	assert.Equal(t, orig.Data, back.Data)
	assert.Equal(t, orig.Created, back.Created)
	assert.Equal(t, orig.ToDelete, back.ToDelete)
}

func TestFromMap_FalsyFieldsAreLost(t *testing.T) {
	orig := New(card{Title: "x", Kind: ""})
	orig.Data.Kind = ""
	back, err := FromMap[card](orig.ToMap())
	require.NoError(t, err)
	// the empty kind was dropped on serialization and the default filled it back
	assert.Equal(t, "basic", back.Data.Kind)
}

func TestFromMap_IgnoresUnknownKeysAndAcceptsStoreNumbers(t *testing.T) {
	r, err := FromMap[card](map[string]any{
		"id":      "doc1",
		"title":   "t",
		"count":   int64(7),
		"ratio":   int32(2),
		"bogus":   "ignored",
		"level":   map[string]any{"index": float64(1), "name": "easy"},
		"created": "2020-01-01T00:00:00.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc1", r.ID)
	assert.Equal(t, 7, r.Data.Count)
	assert.Equal(t, 2.0, r.Data.Ratio)
	assert.Equal(t, &level{Index: 1, Name: "easy"}, r.Data.Level)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", r.Created)
	assert.NotEmpty(t, r.Updated)
}

func TestNestedRecord_ConvertsThroughItsOwnMap(t *testing.T) {
	o := New(owner{Name: "Ann", Email: "ann@example.com"})
	o.ID = "u1"
	r := New(card{Title: "t", Owner: o})

	m := r.ToMap()
	nested, ok := m["owner"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ann", nested["name"])
	assert.Equal(t, "u1", nested["id"])

	back, err := FromMap[card](m)
	require.NoError(t, err)
	require.NotNil(t, back.Data.Owner)
	assert.Equal(t, "u1", back.Data.Owner.ID)
	assert.Equal(t, "ann@example.com", back.Data.Owner.Data.Email)
}

func TestClone_IsIndependent(t *testing.T) {
	orig := New(card{Title: "t", Tags: []string{"a"}, Level: &level{Index: 1, Name: "easy"}, Attempts: map[string]int{"u": 1}})
	orig.ID = "id1"
	c := orig.Clone()

	assert.Equal(t, orig.ID, c.ID)
	assert.Equal(t, orig.Data, c.Data)

	c.Data.Tags[0] = "changed"
	c.Data.Level.Name = "changed"
	c.Data.Attempts["u"] = 99
	assert.Equal(t, "a", orig.Data.Tags[0])
	assert.Equal(t, "easy", orig.Data.Level.Name)
	assert.Equal(t, 1, orig.Data.Attempts["u"])
}

func TestRecordJSON(t *testing.T) {
	r := New(card{Title: "t"})
	r.ID = "id9"
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var back Record[card]
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "id9", back.ID)
	assert.Equal(t, "t", back.Data.Title)
}

func TestIsFalsy(t *testing.T) {
	for _, v := range []any{nil, false, "", 0, int64(0), 0.0, []string(nil), map[string]any(nil)} {
		assert.True(t, IsFalsy(v), "%#v", v)
	}
	for _, v := range []any{true, "x", 1, -1.5, []string{}, map[string]any{}} {
		assert.False(t, IsFalsy(v), "%#v", v)
	}
}
