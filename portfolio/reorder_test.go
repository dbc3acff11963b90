package portfolio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/errs"
)

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestMoveIndex(t *testing.T) {
	in := ids(4)
	a, b, c, d := in[0], in[1], in[2], in[3]

	tests := []struct {
		name     string
		from, to int
		want     []uuid.UUID
		ok       bool
	}{
		{"forward", 0, 2, []uuid.UUID{b, c, a, d}, true},
		{"backward", 3, 1, []uuid.UUID{a, d, b, c}, true},
		{"same index", 2, 2, []uuid.UUID{a, b, c, d}, true},
		{"to end", 0, 3, []uuid.UUID{b, c, d, a}, true},
		{"destination out of range", 1, 4, in, false},
		{"negative source", -1, 0, in, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MoveIndex(in, tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []uuid.UUID{a, b, c, d}, in, "input is never modified")
}

func TestValidatePermutation(t *testing.T) {
	current := ids(3)

	require.NoError(t, ValidatePermutation(current, []uuid.UUID{current[2], current[0], current[1]}))

	err := ValidatePermutation(current, current[:2])
	assert.True(t, errs.IsValidation(err))

	err = ValidatePermutation(current, []uuid.UUID{current[0], current[0], current[1]})
	assert.True(t, errs.IsValidation(err))

	err = ValidatePermutation(current, []uuid.UUID{current[0], current[1], uuid.New()})
	assert.True(t, errs.IsValidation(err))
}
