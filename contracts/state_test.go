package contracts

import (
	"testing"

	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    State
		wantErr bool
	}{
		{name: "empty is initial", input: "", want: State{}},
		{name: "active", input: "0,50", want: State{Value: 50}},
		{name: "terminated", input: "1,7", want: State{Terminated: true, Value: 7}},
		{name: "max value", input: "0,4294967295", want: State{Value: 4294967295}},
		{name: "trailing after terminator", input: "0,5,junk", want: State{Value: 5}},
		{name: "flag out of range", input: "2,5", wantErr: true},
		{name: "missing value", input: "0", wantErr: true},
		{name: "empty value", input: "0,", wantErr: true},
		{name: "bad separator", input: "0;5", wantErr: true},
		{name: "non numeric value", input: "0,abc", wantErr: true},
		{name: "value overflow", input: "0,4294967296", wantErr: true},
		{name: "negative", input: "0,-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, interfaces.ErrState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStateWithTerminators(t *testing.T) {
	st, err := ParseStateWith("1;9", ";")
	require.NoError(t, err)
	assert.Equal(t, State{Terminated: true, Value: 9}, st)

	_, err = ParseStateWith("1,9", ";")
	require.ErrorIs(t, err, interfaces.ErrState)
}

func TestStateEncode(t *testing.T) {
	out, err := State{Value: 50}.Encode(interfaces.MinStateCapacity)
	require.NoError(t, err)
	assert.Equal(t, "0,50", out)

	out, err = State{Terminated: true, Value: 4294967295}.Encode(64)
	require.NoError(t, err)
	assert.Equal(t, "1,4294967295", out)

	_, err = State{}.Encode(interfaces.MinStateCapacity - 1)
	require.ErrorIs(t, err, interfaces.ErrState)
}

func TestStateRoundTrip(t *testing.T) {
	for _, st := range []State{{}, {Value: 1}, {Terminated: true}, {Terminated: true, Value: 123456}} {
		encoded, err := st.Encode(interfaces.MinStateCapacity)
		require.NoError(t, err)
		decoded, err := ParseState(encoded)
		require.NoError(t, err)
		assert.Equal(t, st, decoded)
	}
}
