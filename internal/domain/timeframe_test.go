package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestTimeframeResolve(t *testing.T) {
	tests := []struct {
		name    string
		in      Timeframe
		want    Timeframe
		wantErr bool
	}{
		{
			name: "key only passes through",
			in:   Timeframe{Key: TimeframeLast30Days},
			want: Timeframe{Key: TimeframeLast30Days},
		},
		{
			name: "bounds only pass through",
			in:   Timeframe{Start: ts("2026-08-01T00:00:00Z"), End: ts("2026-08-08T00:00:00Z")},
			want: Timeframe{Start: ts("2026-08-01T00:00:00Z"), End: ts("2026-08-08T00:00:00Z")},
		},
		{
			name: "bounds win over key",
			in:   Timeframe{Key: TimeframeLast7Days, Start: ts("2026-08-01T00:00:00Z"), End: ts("2026-08-08T00:00:00Z")},
			want: Timeframe{Start: ts("2026-08-01T00:00:00Z"), End: ts("2026-08-08T00:00:00Z")},
		},
		{
			name: "empty falls back to default",
			in:   Timeframe{},
			want: Timeframe{Key: DefaultTimeframeKey},
		},
		{
			name:    "start without end rejected",
			in:      Timeframe{Start: ts("2026-08-01T00:00:00Z")},
			wantErr: true,
		},
		{
			name:    "end before start rejected",
			in:      Timeframe{Start: ts("2026-08-08T00:00:00Z"), End: ts("2026-08-01T00:00:00Z")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Resolve()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Key, got.Key)
			if tt.want.IsBounded() {
				require.True(t, got.IsBounded())
				assert.True(t, got.Start.Equal(*tt.want.Start))
				assert.True(t, got.End.Equal(*tt.want.End))
			}
		})
	}
}

func TestTimeframeSignature(t *testing.T) {
	key := Timeframe{Key: TimeframeLast7Days}
	assert.Equal(t, "key:last_7_days", key.Signature())

	bounded := Timeframe{Start: ts("2026-08-01T00:00:00Z"), End: ts("2026-08-08T00:00:00Z")}
	assert.Equal(t, bounded.Signature(), bounded.Signature())
	assert.NotEqual(t, key.Signature(), bounded.Signature())

	// Same instants in different zone spellings share a signature
	est := Timeframe{Start: ts("2026-07-31T19:00:00-05:00"), End: ts("2026-08-07T19:00:00-05:00")}
	assert.Equal(t, bounded.Signature(), est.Signature())
}
