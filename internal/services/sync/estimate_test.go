package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/credsync/internal/models"
)

func TestEstimateScore_Formula(t *testing.T) {
	p := &models.FinancialProfile{
		Income:            models.Float(50000), // +2.5 (capped at 30)
		PaymentHistory:    models.Float(0.9),   // +45
		CreditUtilization: models.Float(0.3),   // -9
	}
	score := estimateScore(p, "abc")
	// 650 + 45 - 9 + 2.5 = 688.5, rounded to 689
	assert.Equal(t, 689, score.Score)
	assert.Equal(t, "Good", score.Category)
	assert.True(t, score.Fallback)
	assert.False(t, score.Cached)
	assert.Equal(t, "abc", score.DataHash)
	assert.NotEmpty(t, score.Message)
	assert.NotEmpty(t, score.Factors)
}

func TestEstimateScore_IncomeContributionCapped(t *testing.T) {
	low := estimateScore(&models.FinancialProfile{Income: models.Float(600000)}, "")
	high := estimateScore(&models.FinancialProfile{Income: models.Float(6000000)}, "")
	assert.Equal(t, low.Score, high.Score, "income contribution is capped at 30 points")
	assert.Equal(t, 680, low.Score)
}

func TestEstimateScore_NilProfile(t *testing.T) {
	score := estimateScore(nil, "")
	require.NotNil(t, score)
	assert.Equal(t, 650, score.Score)
}

func TestScoreCategory_Bands(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{850, "Exceptional"},
		{800, "Exceptional"},
		{799, "Excellent"},
		{740, "Excellent"},
		{700, "Good"},
		{670, "Good"},
		{600, "Fair"},
		{580, "Fair"},
		{550, "Poor"},
		{500, "Poor"},
		{499, "Very Poor"},
		{300, "Very Poor"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, models.ScoreCategory(tc.score), "score %d", tc.score)
	}
}

func TestClampScore_Range(t *testing.T) {
	assert.Equal(t, models.ScoreMin, models.ClampScore(100))
	assert.Equal(t, models.ScoreMax, models.ClampScore(900))
	assert.Equal(t, 700, models.ClampScore(700))
}
