package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gothwad/classesx/core"
)

func TestOrderByClause(t *testing.T) {
	columns := map[string]string{"name": "lower(name)", "created_at": "created_at"}
	newest := core.DBOrdering{Field: "created_at"}

	tests := []struct {
		name      string
		orderings []core.DBOrdering
		defaults  []core.DBOrdering
		want      string
	}{
		{name: "nothing", want: ""},
		{name: "defaults", defaults: []core.DBOrdering{newest}, want: " ORDER BY created_at DESC"},
		{
			name:      "mapped fields",
			orderings: []core.DBOrdering{{Field: "name", Ascending: true}, newest},
			want:      " ORDER BY lower(name) ASC, created_at DESC",
		},
		{
			name:      "unknown fields fall back to defaults",
			orderings: []core.DBOrdering{{Field: "password_hash"}},
			defaults:  []core.DBOrdering{newest},
			want:      " ORDER BY created_at DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.OrderByClause(tt.orderings, columns, tt.defaults...))
		})
	}
}
