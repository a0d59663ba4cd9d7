package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Party shall indemnify, defend and hold harmless the Party!")

	assert.Contains(t, tokens, "indemnify")
	assert.Contains(t, tokens, "harmless")
	// Deduplicated
	_, ok := tokens["party"]
	assert.True(t, ok)
	// Punctuation and single characters dropped
	assert.NotContains(t, tokens, ",")
	assert.NotContains(t, tokens, "a")
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("!!! ... ---"))
}

func TestJaccard(t *testing.T) {
	a := Tokenize("limitation of liability cap")
	b := Tokenize("liability cap amount")

	score := Jaccard(a, b)
	// a = {limitation, of, liability, cap}, b = {liability, cap, amount}
	// intersection = 2, union = 5
	assert.InDelta(t, 2.0/5.0, score, 1e-9)

	// Symmetry
	assert.Equal(t, score, Jaccard(b, a))

	// Identity
	assert.InDelta(t, 1.0, Jaccard(a, a), 1e-9)

	// Empty sets
	assert.Zero(t, Jaccard(nil, b))
	assert.Zero(t, Jaccard(a, map[string]struct{}{}))
}

func TestRank(t *testing.T) {
	mk := func(title, body string) Clause {
		c, err := NewClause(title, body, CategoryGeneral)
		require.NoError(t, err)
		return *c
	}

	clauses := []Clause{
		mk("Limitation of Liability", "liability shall be capped at fees paid"),
		mk("Payment Terms", "invoices are due within thirty days"),
		mk("Liability Cap", "aggregate liability capped at the fees paid under this agreement"),
	}

	matches := Rank("liability capped at fees", clauses, 0.1, 10)
	require.Len(t, matches, 2)
	// Ordered by descending score
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	for _, m := range matches {
		assert.NotEqual(t, "Payment Terms", m.Clause.Title)
	}
}

func TestRank_LimitAndThreshold(t *testing.T) {
	mk := func(title string) Clause {
		c, err := NewClause(title, "termination for convenience with notice", CategoryTermination)
		require.NoError(t, err)
		return *c
	}
	clauses := []Clause{mk("Termination A"), mk("Termination B"), mk("Termination C")}

	matches := Rank("termination notice", clauses, 0.1, 2)
	assert.Len(t, matches, 2)

	// A threshold above every score yields nothing
	matches = Rank("termination notice", clauses, 0.99, 10)
	assert.Empty(t, matches)
}

func TestClause_SetTags(t *testing.T) {
	c, err := NewClause("Confidentiality", "each party shall keep information confidential", CategoryConfidentiality)
	require.NoError(t, err)

	c.SetTags([]string{"NDA", "nda", "  Mutual ", ""})
	assert.Equal(t, []string{"nda", "mutual"}, c.Tags)
}

func TestNewClause_DefaultsCategory(t *testing.T) {
	c, err := NewClause("Misc", "boilerplate", Category("BOGUS"))
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, c.Category)
}
