package listing

// Field names an announcement attribute a predicate can test.
type Field int

const (
	FieldName Field = iota + 1
	FieldAddress
	FieldMaster // owner's full name
	FieldWidth
	FieldHeight
	FieldLength
	FieldWeight
	FieldAmount
	FieldPrice
)

var fieldNames = map[Field]string{
	FieldName:    "name",
	FieldAddress: "address",
	FieldMaster:  "master",
	FieldWidth:   "width",
	FieldHeight:  "height",
	FieldLength:  "length",
	FieldWeight:  "weight",
	FieldAmount:  "amount",
	FieldPrice:   "price",
}

func (f Field) String() string {
	return fieldNames[f]
}

// Op is a predicate operator.
type Op int

const (
	// OpContains is case-insensitive substring containment; an empty value matches everything.
	OpContains Op = iota + 1
	// OpAtLeast is an inclusive lower bound.
	OpAtLeast
	// OpAtMost is an inclusive upper bound.
	OpAtMost
)

// Predicate compares one field against a bound parameter.
type Predicate struct {
	Field Field
	Op    Op
	Param string
	Value any
}

// Query is a conjunction of predicates. Engines render it with Param as the bind name and
// never splice Value into query text.
type Query []Predicate

// Params returns the bind parameters of q.
func (q Query) Params() map[string]any {
	params := make(map[string]any, len(q))
	for _, p := range q {
		params[p.Param] = p.Value
	}
	return params
}

// Has reports whether q constrains field with op.
func (q Query) Has(field Field, op Op) bool {
	for _, p := range q {
		if p.Field == field && p.Op == op {
			return true
		}
	}
	return false
}

// Build composes the predicates of f: substring matches and lower bounds always apply,
// upper bounds only when non-zero.
func Build(f Filter) Query {
	q := Query{
		contains(FieldName, f.Name),
		contains(FieldMaster, f.Master),
		contains(FieldAddress, f.Address),
		atLeast(FieldWidth, f.Width.Min),
		atLeast(FieldHeight, f.Height.Min),
		atLeast(FieldLength, f.Length.Min),
		atLeast(FieldWeight, f.Weight.Min),
		atLeast(FieldAmount, f.Amount.Min),
		atLeast(FieldPrice, f.Price.Min),
	}

	optional := []struct {
		when bool
		pred Predicate
	}{
		{f.Width.Max != 0, atMost(FieldWidth, f.Width.Max)},
		{f.Height.Max != 0, atMost(FieldHeight, f.Height.Max)},
		{f.Length.Max != 0, atMost(FieldLength, f.Length.Max)},
		{f.Weight.Max != 0, atMost(FieldWeight, f.Weight.Max)},
		{f.Amount.Max != 0, atMost(FieldAmount, f.Amount.Max)},
		{f.Price.Max != 0, atMost(FieldPrice, f.Price.Max)},
	}
	for _, o := range optional {
		if o.when {
			q = append(q, o.pred)
		}
	}
	return q
}

func contains(f Field, v string) Predicate {
	return Predicate{Field: f, Op: OpContains, Param: f.String(), Value: v}
}

func atLeast(f Field, v any) Predicate {
	return Predicate{Field: f, Op: OpAtLeast, Param: f.String() + "_min", Value: v}
}

func atMost(f Field, v any) Predicate {
	return Predicate{Field: f, Op: OpAtMost, Param: f.String() + "_max", Value: v}
}
