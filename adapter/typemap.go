package adapter

import "strings"

var shortTypeLabels = map[string]string{
	"array":     "[]",
	"bigint":    "##",
	"boolean":   "t/f",
	"char":      "s",
	"date":      "d",
	"decimal":   "#.#",
	"double":    "#.#",
	"float":     "#.#",
	"integer":   "#",
	"int":       "#",
	"interval":  "|-|",
	"json":      "{}",
	"real":      "#.#",
	"smallint":  "#",
	"string":    "t",
	"time":      "t",
	"timestamp": "ts",
	"tinyint":   "#",
	"varchar":   "t",
	"varbinary": "b",
	"struct":    "{}",
	"map":       "{}",
}

// ShortTypeLabel maps an Athena type name to the compact label shown next to
// columns. Parameterized names like "varchar(255)" or "decimal(10,2)" reduce
// to their base type; unknown types map to "?".
func ShortTypeLabel(typeName string) string {
	base := typeName
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	if i := strings.IndexByte(base, ' '); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(base)

	if label, ok := shortTypeLabels[base]; ok {
		return label
	}
	return "?"
}
