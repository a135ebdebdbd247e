package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/attribution-gateway/internal/klaviyo"
)

func TestRankCandidates(t *testing.T) {
	metrics := []klaviyo.Metric{
		{ID: "m_open", Name: "Opened Email"},
		{ID: "m_sms", Name: "Placed Order (SMS)"},
		{ID: "m_po", Name: "Placed Order", Integration: "Shopify"},
		{ID: "m_lower", Name: "placed order"},
		{ID: "m_custom", Name: "Custom Placed Order Event"},
		{ID: "m_click", Name: "Clicked Link"},
	}

	ranked := RankCandidates(metrics)
	require.Len(t, ranked, 4)

	// Exact matches first, in canonical priority order; then the
	// case-insensitive match, then the fuzzy one.
	assert.Equal(t, "m_po", ranked[0].ID)
	assert.Equal(t, "m_sms", ranked[1].ID)
	assert.Equal(t, "m_lower", ranked[2].ID)
	assert.Equal(t, "m_custom", ranked[3].ID)

	assert.Equal(t, 3, ranked[0].Score)
	assert.Equal(t, 2, ranked[2].Score)
	assert.Equal(t, 1, ranked[3].Score)
}

func TestRankCandidatesNoneRelevant(t *testing.T) {
	metrics := []klaviyo.Metric{
		{ID: "m1", Name: "Opened Email"},
		{ID: "m2", Name: "Active on Site"},
	}
	assert.Empty(t, RankCandidates(metrics))
}

func TestPickWinnerFirstActive(t *testing.T) {
	candidates := []Candidate{
		{ID: "m1", Label: "Placed Order", Score: 3},
		{ID: "m2", Label: "Placed Order (SMS)", Score: 3},
		{ID: "m3", Label: "Ordered Product", Score: 3},
	}

	// Highest-priority candidate is inactive; a lower-priority one has
	// volume and must win.
	winner, ok := PickWinner(candidates, map[string]bool{"m2": true, "m3": true})
	require.True(t, ok)
	assert.Equal(t, "m2", winner.ID)
}

func TestPickWinnerZeroActivityDefaultsToPriority(t *testing.T) {
	candidates := []Candidate{
		{ID: "m1", Label: "Placed Order", Score: 3},
		{ID: "m2", Label: "Ordered Product", Score: 3},
	}

	// Zero recorded activity anywhere is not an error: the fixed
	// highest-priority candidate is the best-effort default.
	winner, ok := PickWinner(candidates, map[string]bool{})
	require.True(t, ok)
	assert.Equal(t, "m1", winner.ID)
}

func TestPickWinnerEmpty(t *testing.T) {
	_, ok := PickWinner(nil, nil)
	assert.False(t, ok)
}
