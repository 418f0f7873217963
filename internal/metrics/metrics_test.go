package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRollback(t *testing.T) {
	clean := testutil.ToFloat64(Rollbacks.WithLabelValues("clean"))
	partial := testutil.ToFloat64(Rollbacks.WithLabelValues("partial"))

	RecordRollback(true)
	RecordRollback(false)
	RecordRollback(false)

	assert.Equal(t, clean+1, testutil.ToFloat64(Rollbacks.WithLabelValues("clean")))
	assert.Equal(t, partial+2, testutil.ToFloat64(Rollbacks.WithLabelValues("partial")))
}

func TestRecordReleasedTextsIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(ReleasedTexts)

	RecordReleasedTexts(0)
	RecordReleasedTexts(3)

	assert.Equal(t, before+3, testutil.ToFloat64(ReleasedTexts))
}

func TestRecordClaim(t *testing.T) {
	before := testutil.ToFloat64(TextClaims.WithLabelValues(ResultOutOfTexts))

	RecordClaim(ResultOutOfTexts)

	assert.Equal(t, before+1, testutil.ToFloat64(TextClaims.WithLabelValues(ResultOutOfTexts)))
}
