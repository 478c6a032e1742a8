package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical_SortedKeys(t *testing.T) {
	a := map[string]any{
		"transaction_id": "TXN-001",
		"amount":         "1500.50",
		"buyer_id":       "buyer-1",
	}
	b := map[string]any{
		"buyer_id":       "buyer-1",
		"amount":         "1500.50",
		"transaction_id": "TXN-001",
	}

	dataA, err := Canonical(a)
	require.NoError(t, err)
	dataB, err := Canonical(b)
	require.NoError(t, err)

	assert.Equal(t, dataA, dataB)
	assert.Equal(t, `{"amount":"1500.50","buyer_id":"buyer-1","transaction_id":"TXN-001"}`, string(dataA))
}

func TestCanonical_NestedMapsSorted(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{
			"z": 1,
			"a": 2,
		},
	}

	data, err := Canonical(fields)
	require.NoError(t, err)
	assert.Equal(t, `{"outer":{"a":2,"z":1}}`, string(data))
}

func TestCanonical_ArrayOrderPreserved(t *testing.T) {
	fields := map[string]any{
		"transactions": []string{"tx-2", "tx-1", "tx-3"},
	}

	data, err := Canonical(fields)
	require.NoError(t, err)
	assert.Equal(t, `{"transactions":["tx-2","tx-1","tx-3"]}`, string(data))
}

func TestDigest_Deterministic(t *testing.T) {
	fields := map[string]any{
		"transaction_id": "TXN-001",
		"block_number":   int64(0),
		"nonce":          int64(42),
	}

	d1, err := Digest(fields)
	require.NoError(t, err)
	d2, err := Digest(fields)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, HexLength)
}

func TestDigest_MatchesSHA256OfCanonicalJSON(t *testing.T) {
	fields := map[string]any{"b": "2", "a": "1"}

	sum := sha256.Sum256([]byte(`{"a":"1","b":"2"}`))
	want := hex.EncodeToString(sum[:])

	got, err := Digest(fields)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDigest_SensitiveToValues(t *testing.T) {
	base := map[string]any{"amount": "100", "seller_id": "s-1"}
	tampered := map[string]any{"amount": "999", "seller_id": "s-1"}

	d1, err := Digest(base)
	require.NoError(t, err)
	d2, err := Digest(tampered)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestDigest_UnsupportedValue(t *testing.T) {
	_, err := Digest(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestMeetsDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		digest     string
		difficulty int
		want       bool
	}{
		{"two leading zeros", "00ab3f", 2, true},
		{"exactly at boundary", "0a", 2, false},
		{"one leading zero", "0abc", 2, false},
		{"zero difficulty always passes", "ffff", 0, true},
		{"negative difficulty always passes", "ffff", -1, true},
		{"digest shorter than difficulty", "0", 2, false},
		{"higher difficulty", "000abc", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeetsDifficulty(tt.digest, tt.difficulty))
		})
	}
}
