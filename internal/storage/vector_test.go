package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceFromScore(t *testing.T) {
	// Atlas reports score = 1 / (1 + distance); invert it back
	assert.InDelta(t, 0.0, DistanceFromScore(1.0), 1e-9)
	assert.InDelta(t, 1.0, DistanceFromScore(0.5), 1e-9)
	assert.InDelta(t, 3.0, DistanceFromScore(0.25), 1e-9)
}

func TestDistanceFromScore_NonPositiveScore(t *testing.T) {
	assert.True(t, math.IsInf(DistanceFromScore(0), 1))
	assert.True(t, math.IsInf(DistanceFromScore(-0.1), 1))
}

func TestDistanceOrderingFollowsScoreOrdering(t *testing.T) {
	// Higher score (more similar) must map to lower distance
	near := DistanceFromScore(0.9)
	far := DistanceFromScore(0.3)
	assert.Less(t, near, far)
}

func TestBatchObjectRef(t *testing.T) {
	assert.Equal(t, "batches/b1/pdf_1.pdf", BatchObjectRef("b1", "pdf_1.pdf"))
}
