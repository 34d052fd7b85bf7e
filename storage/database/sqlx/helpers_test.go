package sqlxrepos

import (
	"testing"

	"github.com/rcos-io/portal/core"
)

func Test_orderBy(t *testing.T) {
	allowed := map[string]string{
		"name":       "p.name",
		"created_at": "p.created_at",
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "empty falls back to default", want: " ORDER BY p.name ASC"},
		{
			name:     "known fields map to columns",
			ordering: []core.DBOrdering{{Field: "created_at"}, {Field: "name", Ascending: true}},
			want:     " ORDER BY p.created_at DESC, p.name ASC",
		},
		{
			name:     "unknown field dropped",
			ordering: []core.DBOrdering{{Field: "owner_id", Ascending: true}, {Field: "name", Ascending: true}},
			want:     " ORDER BY p.name ASC",
		},
		// raw SQL in the ordering param must never reach the clause
		{
			name:     "sql fragment dropped",
			ordering: []core.DBOrdering{{Field: "(CASE WHEN (SELECT is_staff FROM \"user\" LIMIT 1) THEN name END)"}},
			want:     " ORDER BY p.name ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.ordering, "p.name ASC", allowed); got != tt.want {
				t.Errorf("orderBy() = %q, want %q", got, tt.want)
			}
		})
	}
}
