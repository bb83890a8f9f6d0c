package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr string
	}{
		{name: "single id", input: "18c2f0a1", want: []string{"18c2f0a1"}},
		{name: "array", input: []any{"m1", "m2", "m3"}, want: []string{"m1", "m2", "m3"}},
		{name: "typed slice", input: []string{"m1", "m2"}, want: []string{"m1", "m2"}},
		{name: "json array in string", input: `["m1", "m2"]`, want: []string{"m1", "m2"}},
		{name: "comma separated", input: "m1, m2 ,m3", want: []string{"m1", "m2", "m3"}},
		{name: "trimmed", input: []any{" m1 ", "m2\n"}, want: []string{"m1", "m2"}},
		{name: "order and duplicates kept", input: []any{"m2", "m1", "m2"}, want: []string{"m2", "m1", "m2"}},
		{name: "malformed json falls back to one id", input: "[m1", want: []string{"[m1"}},

		{name: "nil", input: nil, wantErr: "message_ids is required"},
		{name: "empty string", input: "  ", wantErr: "message_ids cannot be empty"},
		{name: "empty array", input: []any{}, wantErr: "message_ids cannot be empty"},
		{name: "empty json array", input: "[]", wantErr: "message_ids cannot be empty"},
		{name: "non-string item", input: []any{"m1", 123.0}, wantErr: "message_ids[1] must be a string"},
		{name: "empty item", input: []any{"m1", ""}, wantErr: "message_ids[1] cannot be empty"},
		{name: "trailing comma", input: "m1,", wantErr: "message_ids[1] cannot be empty"},
		{name: "json with non-string", input: `["m1", 2]`, wantErr: "message_ids[1] must be a string"},
		{name: "wrong type", input: 42.0, wantErr: "must be a string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.input, "message_ids")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
