package sqlxrepos

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/rcos-io/portal/core"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func pqStringArray(vals []string) interface{} {
	return pq.Array(vals)
}

// orderBy renders an ORDER BY clause from the requested ordering, falling back
// to the given default. The ordering comes straight from the request and is
// concatenated into SQL, so only fields mapped in allowed may pass.
func orderBy(ordering []core.DBOrdering, dflt string, allowed map[string]string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		if dflt == "" {
			return ""
		}
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
