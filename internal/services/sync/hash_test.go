package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/credsync/internal/models"
)

func TestProfileHash_StableForEqualInputs(t *testing.T) {
	a := testProfile()
	b := testProfile()
	assert.Equal(t, ProfileHash(a), ProfileHash(b))
}

func TestProfileHash_ChangesOnScoreRelevantField(t *testing.T) {
	base := testProfile()
	baseHash := ProfileHash(base)

	changed := *base
	changed.Income = models.Float(51000)
	assert.NotEqual(t, baseHash, ProfileHash(&changed), "income is score-relevant")

	changed = *base
	changed.PublicRecords = 1
	assert.NotEqual(t, baseHash, ProfileHash(&changed), "public_records is score-relevant")

	changed = *base
	changed.TotalLoanAmount = 99999
	assert.NotEqual(t, baseHash, ProfileHash(&changed), "loan_amount is score-relevant")
}

func TestProfileHash_IgnoresIrrelevantFields(t *testing.T) {
	base := testProfile()
	baseHash := ProfileHash(base)

	changed := *base
	changed.CreditMix = models.Float(0.8)
	changed.NewCredit = models.Float(0.5)
	assert.Equal(t, baseHash, ProfileHash(&changed), "credit_mix and new_credit do not invalidate the score")
}

func TestProfileHash_NilFieldEqualsZero(t *testing.T) {
	a := &models.FinancialProfile{}
	b := &models.FinancialProfile{Income: models.Float(0)}
	assert.Equal(t, ProfileHash(a), ProfileHash(b))
}

func TestProfileHash_Nil(t *testing.T) {
	assert.Equal(t, "", ProfileHash(nil))
}
