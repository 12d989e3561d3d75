package postgres

import (
	"testing"
	"time"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/filter"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	t.Run("Should translate a comparison into a placeholder", func(t *testing.T) {
		where, args, err := buildWhere([]filter.Clause{
			{Field: "experience", Op: filter.OpGte, Value: int64(3)},
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, "TRUE AND c.experience >= $1", where)
		assert.Equal(t, []interface{}{int64(3)}, args)
	})

	t.Run("Should bind in-lists as one array argument", func(t *testing.T) {
		where, args, err := buildWhere([]filter.Clause{
			{Field: "status", Op: filter.OpIn, Value: []string{"ongoing", "scheduled"}},
			{Field: "notes", Op: filter.OpNe, Value: "skip"},
		}, 3)
		require.NoError(t, err)
		assert.Equal(t, "TRUE AND c.status = ANY($3) AND c.notes IS DISTINCT FROM $4", where)
		require.Len(t, args, 2)
		assert.Equal(t, pq.Array([]string{"ongoing", "scheduled"}), args[0])
	})

	t.Run("Should accept an empty predicate", func(t *testing.T) {
		where, args, err := buildWhere(nil, 1)
		require.NoError(t, err)
		assert.Equal(t, "TRUE", where)
		assert.Empty(t, args)
	})

	t.Run("Should refuse columns outside the whitelist", func(t *testing.T) {
		_, _, err := buildWhere([]filter.Clause{{Field: "1=1; DROP TABLE candidates", Op: filter.OpEq, Value: "x"}}, 1)
		assert.Error(t, err)
	})

	t.Run("Should keep every schema filter field mapped", func(t *testing.T) {
		for _, name := range []string{"full_name", "email", "status", "position", "experience", "notes", "resume_filename", "interview_date", "created_at", "created_by"} {
			f, ok := domain.CandidateSchema.Field(name)
			require.True(t, ok, name)
			assert.True(t, f.Filterable, name)
			_, mapped := candidateColumns[name]
			assert.True(t, mapped, name)
		}
	})

	t.Run("Should pass time values through untouched", func(t *testing.T) {
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		_, args, err := buildWhere([]filter.Clause{{Field: "created_at", Op: filter.OpLt, Value: day}}, 1)
		require.NoError(t, err)
		assert.Equal(t, day, args[0])
	})
}

func TestBuildOrder(t *testing.T) {
	order, err := buildOrder([]filter.SortField{{Field: "created_at", Desc: true}, {Field: "full_name"}})
	require.NoError(t, err)
	assert.Equal(t, "c.created_at DESC NULLS LAST, c.full_name ASC NULLS LAST, c.id ASC", order)

	_, err = buildOrder([]filter.SortField{{Field: "password"}})
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_dev\\ops`, escapeLike(`100% _dev\ops`))
	assert.Equal(t, "engineer", escapeLike("engineer"))
}
