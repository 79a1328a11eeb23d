package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
		wantNoBug bool
	}{
		{
			name:      "Bugzilla response",
			input:     `{"bugs":[{"id":1,"summary":"crash","is_open":true,"creation_time":"2016-03-01T10:00:00Z"},{"id":2,"is_open":false}]}`,
			wantCount: 2,
		},
		{
			name:      "Empty bugs array",
			input:     `{"bugs":[]}`,
			wantCount: 0,
		},
		{
			name:      "Missing bugs key",
			input:     `{"error":true,"message":"nope"}`,
			wantErr:   true,
			wantNoBug: true,
		},
		{
			name:      "Null bugs",
			input:     `{"bugs":null}`,
			wantErr:   true,
			wantNoBug: true,
		},
		{
			name:    "Malformed JSON",
			input:   `{"bugs":[`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode([]byte(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tc.wantNoBug, errors.Is(err, ErrNoBugs))
				return
			}
			require.NoError(t, err)
			assert.Len(t, p.Bugs, tc.wantCount)
		})
	}
}

func TestDecodeMissingFieldsAreZero(t *testing.T) {
	p, err := Decode([]byte(`{"bugs":[{"id":7}]}`))
	require.NoError(t, err)
	require.Len(t, p.Bugs, 1)

	bug := p.Bugs[0]
	assert.Equal(t, 7, bug.ID)
	assert.Empty(t, bug.Summary)
	assert.Nil(t, bug.DupeOf)
	assert.True(t, bug.CreationTime.IsZero())
}

func TestDecodeMalformedFieldKeepsRecord(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		check func(t *testing.T, bad Bug)
	}{
		{
			name:  "Empty creation time",
			input: `{"bugs":[{"id":1,"summary":"good","is_open":true,"creation_time":"2016-03-01T10:00:00Z"},{"id":2,"summary":"bad time","is_open":true,"creation_time":""}]}`,
			check: func(t *testing.T, bad Bug) {
				assert.Equal(t, 2, bad.ID)
				assert.Equal(t, "bad time", bad.Summary)
				assert.True(t, bad.IsOpen)
				assert.True(t, bad.CreationTime.IsZero())
			},
		},
		{
			name:  "String id",
			input: `{"bugs":[{"id":1,"summary":"good","is_open":true},{"id":"abc","summary":"bad id","status":"NEW","is_open":true,"creation_time":"2016-03-02T10:00:00Z"}]}`,
			check: func(t *testing.T, bad Bug) {
				assert.Zero(t, bad.ID)
				assert.Equal(t, "bad id", bad.Summary)
				assert.Equal(t, "NEW", bad.Status)
				assert.Equal(t, time.Date(2016, 3, 2, 10, 0, 0, 0, time.UTC), bad.CreationTime)
			},
		},
		{
			name:  "Wrong typed keywords and dupe",
			input: `{"bugs":[{"id":1},{"id":2,"keywords":"DevAdvocacy","dupe_of":"x","is_open":"yes","product":"Core"}]}`,
			check: func(t *testing.T, bad Bug) {
				assert.Equal(t, 2, bad.ID)
				assert.Nil(t, bad.Keywords)
				assert.Nil(t, bad.DupeOf)
				assert.False(t, bad.IsOpen)
				assert.Equal(t, "Core", bad.Product)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode([]byte(tc.input))
			require.NoError(t, err)
			require.Len(t, p.Bugs, 2)
			assert.Equal(t, 1, p.Bugs[0].ID)
			tc.check(t, p.Bugs[1])
		})
	}
}

func TestDecodeSkipsNonObjectRecords(t *testing.T) {
	p, err := Decode([]byte(`{"bugs":[{"id":1},42,"x",{"id":2}]}`))
	require.NoError(t, err)
	require.Len(t, p.Bugs, 2)
	assert.Equal(t, 1, p.Bugs[0].ID)
	assert.Equal(t, 2, p.Bugs[1].ID)
}

func TestDecodeBugsNotAnArray(t *testing.T) {
	_, err := Decode([]byte(`{"bugs":{"id":1}}`))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoBugs))
}

func TestEncodeRoundTrip(t *testing.T) {
	dupe := 3
	in := Payload{Bugs: []Bug{{
		ID:           10,
		Summary:      "Layout broken",
		Status:       "RESOLVED",
		Resolution:   "DUPLICATE",
		DupeOf:       &dupe,
		Keywords:     []string{"DevAdvocacy"},
		CreationTime: time.Date(2016, 3, 1, 10, 0, 0, 0, time.UTC),
	}}}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeNilBugs(t *testing.T) {
	data, err := Encode(Payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bugs":[]}`, string(data))
}

func TestOpenCount(t *testing.T) {
	bugs := []Bug{{IsOpen: true}, {IsOpen: false}, {IsOpen: true}}
	assert.Equal(t, 2, OpenCount(bugs))
	assert.Equal(t, 0, OpenCount(nil))
}
