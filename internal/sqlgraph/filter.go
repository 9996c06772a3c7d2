package sqlgraph

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
)

// filterColumns maps filter fields to SQL expressions over the joined owner (u) and announcement (a).
var filterColumns = map[listing.Field]string{
	listing.FieldName:    prop("a", graph.PropName),
	listing.FieldAddress: prop("a", graph.PropAddress),
	listing.FieldMaster:  prop("u", graph.PropFullName),
	listing.FieldWidth:   prop("a", graph.PropWidth),
	listing.FieldHeight:  prop("a", graph.PropHeight),
	listing.FieldLength:  prop("a", graph.PropLength),
	listing.FieldWeight:  prop("a", graph.PropWeight),
	listing.FieldAmount:  prop("a", graph.PropAmount),
	listing.FieldPrice:   prop("a", graph.PropPrice),
}

func prop(alias, key string) string {
	return fmt.Sprintf("json_extract(%s.props, '$.%s')", alias, key)
}

// renderFilter renders q as a WHERE fragment with named arguments.
func renderFilter(q listing.Query) (string, []any, error) {
	if len(q) == 0 {
		return "1 = 1", nil, nil
	}
	clauses := make([]string, 0, len(q))
	args := make([]any, 0, len(q))
	for _, p := range q {
		col, ok := filterColumns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %d", p.Field)
		}
		switch p.Op {
		case listing.OpContains:
			clauses = append(clauses, fmt.Sprintf(
				"(@%[2]s = '' OR instr(casefold(coalesce(%[1]s, '')), casefold(@%[2]s)) > 0)", col, p.Param))
		case listing.OpAtLeast:
			clauses = append(clauses, fmt.Sprintf("%s >= @%s", col, p.Param))
		case listing.OpAtMost:
			clauses = append(clauses, fmt.Sprintf("%s <= @%s", col, p.Param))
		default:
			return "", nil, fmt.Errorf("unknown filter operator %d", p.Op)
		}
		args = append(args, sql.Named(p.Param, p.Value))
	}
	return strings.Join(clauses, " AND "), args, nil
}
