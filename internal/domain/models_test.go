package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVoteType(t *testing.T) {
	tests := []struct {
		raw     string
		want    VoteType
		wantErr bool
	}{
		{raw: "YES", want: VoteYes},
		{raw: "yes", want: VoteYes},
		{raw: " No ", want: VoteNo},
		{raw: "maybe", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseVoteType(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVoteType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoteKey_DeveSerDeterministicaPorPar(t *testing.T) {
	a := VoteKey("u1", "A1")
	b := VoteKey("u1", "A1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, VoteKey("u1", "A2"))
	// O separador impede colisões por concatenação ("u1A" + "1" vs "u1" + "A1").
	assert.NotEqual(t, VoteKey("u1A", "1"), VoteKey("u1", "A1"))
}

func TestFaculty(t *testing.T) {
	assert.True(t, FacultyWFiIS.Valid())
	assert.False(t, Faculty("WZ").Valid())
	assert.Equal(t, "Wydział Elektroniki i Telekomunikacji", FacultyWiEIT.FullName())
	assert.Empty(t, Faculty("WZ").FullName())
}
