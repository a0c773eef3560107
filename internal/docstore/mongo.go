package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

const mongoID = "_id"

// mongoDot replaces dots inside stored key names, which Mongo would read as
// path separators.
const mongoDot = "\uff0e"

// Mongo adapts a MongoDB database. Documents are keyed by a string _id and
// each collection maps to a Mongo collection of the same name.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{mongoID: id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("mongo get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (m *Mongo) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := primitive.NewObjectID().Hex()
	if _, err := m.db.Collection(collection).InsertOne(ctx, withID(id, data)); err != nil {
		return "", fmt.Errorf("mongo add %s: %w", collection, err)
	}
	return id, nil
}

func (m *Mongo) Set(ctx context.Context, collection, id string, data map[string]any) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(collection).ReplaceOne(ctx, bson.M{mongoID: id}, withID(id, data), opts); err != nil {
		return fmt.Errorf("mongo set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	set := bson.M{}
	inc := bson.M{}
	for path, v := range fields {
		key := mongoField(path)
		if n, ok := v.(Increment); ok {
			inc[key] = int64(n)
			continue
		}
		set[key] = escapeKeys(v)
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(update) == 0 {
		_, err := m.Get(ctx, collection, id)
		return err
	}
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{mongoID: id}, update)
	if err != nil {
		return fmt.Errorf("mongo update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	if _, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{mongoID: id}); err != nil {
		return fmt.Errorf("mongo delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Run(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	filter, err := mongoFilter(q)
	if err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", collection, err)
	}

	order := q.OrderBy
	if len(order) == 0 || order[len(order)-1].Field != DocumentID {
		order = append(append([]query.OrderBy(nil), order...), query.OrderBy{Field: DocumentID})
	}
	// limitToLast reads the tail in reverse, then flips it back
	reverse := q.LimitToLast && q.Limit > 0
	sortDoc := bson.D{}
	for _, o := range order {
		dir := 1
		if o.Descending() != reverse {
			dir = -1
		}
		sortDoc = append(sortDoc, bson.E{Key: mongoField(o.Field), Value: dir})
	}

	opts := options.Find().SetSort(sortDoc)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	out := []Snapshot{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
		}
		out = append(out, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", collection, err)
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func mongoField(f string) string {
	if f == DocumentID {
		return mongoID
	}
	parts := SplitPath(f)
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, ".", mongoDot)
	}
	return strings.Join(parts, ".")
}

func escapeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[strings.ReplaceAll(k, ".", mongoDot)] = escapeKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = escapeKeys(item)
		}
		return out
	}
	return v
}

func unescapeKey(k string) string {
	return strings.ReplaceAll(k, mongoDot, ".")
}

func mongoFilter(q Query) (bson.M, error) {
	and := bson.A{}
	for _, w := range q.Where {
		cond, err := mongoCondition(w)
		if err != nil {
			return nil, err
		}
		and = append(and, bson.M{mongoField(w.Field): cond})
	}
	for _, o := range q.OrderBy {
		if o.Field != DocumentID {
			and = append(and, bson.M{mongoField(o.Field): bson.M{"$exists": true}})
		}
	}
	if len(q.StartAfter) > 0 {
		and = append(and, cursorFilter(q.OrderBy, q.StartAfter, true))
	}
	if len(q.EndBefore) > 0 {
		and = append(and, cursorFilter(q.OrderBy, q.EndBefore, false))
	}
	if len(and) == 0 {
		return bson.M{}, nil
	}
	return bson.M{"$and": and}, nil
}

func mongoCondition(w query.Where) (bson.M, error) {
	switch w.Operator {
	case query.Equal:
		return bson.M{"$eq": w.Value}, nil
	case query.NotEqual:
		return bson.M{"$exists": true, "$nin": bson.A{w.Value, nil}}, nil
	case query.Less:
		return bson.M{"$lt": w.Value}, nil
	case query.LessOrEqual:
		return bson.M{"$lte": w.Value}, nil
	case query.Greater:
		return bson.M{"$gt": w.Value}, nil
	case query.GreaterOrEqual:
		return bson.M{"$gte": w.Value}, nil
	case query.ArrayContains:
		return bson.M{"$elemMatch": bson.M{"$eq": w.Value}}, nil
	case query.ArrayContainsAny:
		return bson.M{"$elemMatch": bson.M{"$in": toSlice(w.Value)}}, nil
	case query.In:
		return bson.M{"$in": toSlice(w.Value)}, nil
	case query.NotIn:
		return bson.M{"$exists": true, "$nin": append(toSlice(w.Value), nil)}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", w.Operator)
}

// cursorFilter matches rows strictly after (or before) the cursor tuple in
// the given sort order: (a > x) or (a == x and b > y) and so on.
func cursorFilter(order []query.OrderBy, values []any, after bool) bson.M {
	or := bson.A{}
	for i := 0; i < len(order) && i < len(values); i++ {
		clause := bson.M{}
		for j := 0; j < i; j++ {
			clause[mongoField(order[j].Field)] = values[j]
		}
		op := "$gt"
		if order[i].Descending() == after {
			op = "$lt"
		}
		clause[mongoField(order[i].Field)] = bson.M{op: values[i]}
		or = append(or, clause)
	}
	return bson.M{"$or": or}
}

func withID(id string, data map[string]any) bson.M {
	doc := make(bson.M, len(data)+1)
	for k, v := range data {
		doc[strings.ReplaceAll(k, ".", mongoDot)] = escapeKeys(v)
	}
	doc[mongoID] = id
	return doc
}

func fromBSON(raw bson.M) Snapshot {
	id, _ := raw[mongoID].(string)
	if id == "" {
		if oid, ok := raw[mongoID].(primitive.ObjectID); ok {
			id = oid.Hex()
		}
	}
	delete(raw, mongoID)
	data, _ := plainValue(raw).(map[string]any)
	return Snapshot{ID: id, Data: data}
}

// plainValue unwraps driver types into the map/slice/int64/float64 shapes
// the entity codec reads.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[unescapeKey(k)] = plainValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[unescapeKey(k)] = plainValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[unescapeKey(e.Key)] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.DateTime:
		return t.Time()
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}
