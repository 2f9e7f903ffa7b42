package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Label
	}{
		{0, LabelFair},
		{30, LabelFair},
		{31, LabelModerate},
		{50, LabelModerate},
		{69, LabelModerate},
		{70, LabelSevere},
		{100, LabelSevere},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %d", tt.score)
	}
}

func TestClassify_CoversEveryScoreExactlyOnce(t *testing.T) {
	counts := map[Label]int{}
	for score := MinScore; score <= MaxScore; score++ {
		l := Classify(score)
		assert.True(t, l.Valid(), "score %d produced %q", score, l)
		counts[l]++
	}

	assert.Equal(t, 31, counts[LabelFair])
	assert.Equal(t, 39, counts[LabelModerate])
	assert.Equal(t, 31, counts[LabelSevere])
}

func TestClassify_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, LabelFair, Classify(-15))
	assert.Equal(t, LabelSevere, Classify(140))
	assert.Equal(t, 0, Clamp(-1))
	assert.Equal(t, 100, Clamp(101))
	assert.Equal(t, 42, Clamp(42))
}

func TestPersonaFor(t *testing.T) {
	assert.Equal(t, PersonaDike, PersonaFor(LabelFair))
	assert.Equal(t, PersonaApate, PersonaFor(LabelModerate))
	assert.Equal(t, PersonaNemesis, PersonaFor(LabelSevere))

	assert.Equal(t, PersonaDike, PersonaForScore(30))
	assert.Equal(t, PersonaApate, PersonaForScore(31))
	assert.Equal(t, PersonaApate, PersonaForScore(69))
	assert.Equal(t, PersonaNemesis, PersonaForScore(70))
}

func TestCountingConventionAroundThirty(t *testing.T) {
	// 30 is FAIR for classification but neither scammed nor fair for counting.
	assert.Equal(t, LabelFair, Classify(30))
	assert.False(t, IsScammed(30))
	assert.False(t, IsFairDeal(30))

	assert.True(t, IsFairDeal(29))
	assert.False(t, IsScammed(29))
	assert.True(t, IsScammed(31))
	assert.False(t, IsFairDeal(31))
}
