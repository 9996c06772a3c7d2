package graphdb

import (
	"fmt"
	"strings"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
)

// filterProps maps filter fields to properties of the matched owner (u) and announcement (a).
var filterProps = map[listing.Field]string{
	listing.FieldName:    "a." + graph.PropName,
	listing.FieldAddress: "a." + graph.PropAddress,
	listing.FieldMaster:  "u." + graph.PropFullName,
	listing.FieldWidth:   "a." + graph.PropWidth,
	listing.FieldHeight:  "a." + graph.PropHeight,
	listing.FieldLength:  "a." + graph.PropLength,
	listing.FieldWeight:  "a." + graph.PropWeight,
	listing.FieldAmount:  "a." + graph.PropAmount,
	listing.FieldPrice:   "a." + graph.PropPrice,
}

// renderPredicates renders q as a WHERE condition. Values are bound as parameters only.
func renderPredicates(q listing.Query) (string, map[string]any, error) {
	if len(q) == 0 {
		return "true", map[string]any{}, nil
	}
	clauses := make([]string, 0, len(q))
	for _, p := range q {
		prop, ok := filterProps[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %d", p.Field)
		}
		switch p.Op {
		case listing.OpContains:
			clauses = append(clauses, fmt.Sprintf("toLower(coalesce(%s, '')) CONTAINS toLower($%s)", prop, p.Param))
		case listing.OpAtLeast:
			clauses = append(clauses, fmt.Sprintf("%s >= $%s", prop, p.Param))
		case listing.OpAtMost:
			clauses = append(clauses, fmt.Sprintf("%s <= $%s", prop, p.Param))
		default:
			return "", nil, fmt.Errorf("unknown filter operator %d", p.Op)
		}
	}
	return strings.Join(clauses, "\n  AND "), q.Params(), nil
}

// listAnnouncementsCypher scans every authoring relationship and keeps the ones matching q.
func listAnnouncementsCypher(q listing.Query) (string, map[string]any, error) {
	where, params, err := renderPredicates(q)
	if err != nil {
		return "", nil, err
	}
	cypher := "MATCH (u:User)-[c:Create]->(a:Announcement)\n" +
		"WHERE " + where + "\n" +
		"RETURN a, u.login AS master, c.number AS number\n" +
		"ORDER BY master, number"
	return cypher, params, nil
}
