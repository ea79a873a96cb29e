package repository

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uuidArray converts ids into a Postgres uuid[] parameter for "= ANY($n::uuid[])"
func uuidArray(ids []uuid.UUID) interface{} {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return pq.Array(values)
}
