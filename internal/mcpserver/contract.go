package mcpserver

// FilterContract describes how announcement searches are interpreted so that
// LLM consumers can build correct filters.
const FilterContract = `# Offcuts Announcement Filter Contract

Announcements are listings of surplus production material. Each one belongs to
a master (its owner) and is identified by the owner's login plus a per-owner
number starting at 1. Numbers are never reused after deletion.

## Parameters

| parameter | type | meaning |
|---|---|---|
| ` + "`name`" + ` | text | announcement name contains this text |
| ` + "`master`" + ` | text | owner's full name contains this text |
| ` + "`address`" + ` | text | pickup address contains this text |
| ` + "`width_min`" + ` / ` + "`width_max`" + ` | number | width bounds |
| ` + "`height_min`" + ` / ` + "`height_max`" + ` | number | height bounds |
| ` + "`length_min`" + ` / ` + "`length_max`" + ` | number | length bounds |
| ` + "`weight_min`" + ` / ` + "`weight_max`" + ` | number | weight bounds |
| ` + "`amount_min`" + ` / ` + "`amount_max`" + ` | integer | piece count bounds |
| ` + "`price_min`" + ` / ` + "`price_max`" + ` | number | price bounds |

## Rules

1. **Every filter is optional.** Filters combine with AND.
2. **Text filters** are case-insensitive substring matches. An empty text matches everything.
3. **Bounds are inclusive.** ` + "`price_min=1.5`" + ` keeps an announcement priced exactly 1.5.
4. **A zero upper bound means "no upper bound".** ` + "`price_max=0`" + ` does not restrict
   prices at all. There is no way to ask for "at most 0".
5. **Integers only for amount.** ` + "`amount_min=2.5`" + ` is rejected as a malformed filter.

## Example

Find oak pieces at Plant 3 costing between 1 and 5:

` + "```" + `json
{"name": "oak", "address": "plant 3", "price_min": 1, "price_max": 5}
` + "```" + `

## Photos

Use ` + "`upload_photo`" + ` to store an image. Put the returned ` + "`url`" + ` into the
` + "`photo_url`" + ` field of a user or an announcement.
`
