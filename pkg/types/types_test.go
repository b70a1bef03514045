package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchOutcome(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		o := Succeeded("hello world")
		assert.True(t, o.OK())
		assert.Equal(t, StatusSuccess, o.Status())
		assert.Equal(t, "hello world", o.Text())
		assert.Empty(t, o.Reason())
	})

	t.Run("failed", func(t *testing.T) {
		o := Failed("Non-HTML content")
		assert.False(t, o.OK())
		assert.Equal(t, StatusFailed, o.Status())
		assert.Empty(t, o.Text())
		assert.Equal(t, "Non-HTML content", o.Reason())
	})

	t.Run("zero value is a failure", func(t *testing.T) {
		var o FetchOutcome
		assert.False(t, o.OK())
		assert.Equal(t, StatusFailed, o.Status())
		assert.Equal(t, "Failed", o.Status().String())
		assert.Equal(t, NotFetchedReason, o.Reason())
	})
}

func TestPairResult_ColumnsZeroOutcome(t *testing.T) {
	r := PairResult{Old: Succeeded("a")}

	assert.False(t, r.Compared())
	assert.Equal(t, []string{
		"Success", NoError,
		"Failed", NotFetchedReason,
		FetchErrorText, FetchErrorText, FetchErrorText, NotAvailable,
	}, r.Columns())
}

func TestDiffResult_Similarity(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected string
	}{
		{1.0, "100.00%"},
		{0, "0.00%"},
		{0.5, "50.00%"},
		{2.0 / 3.0, "66.67%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, DiffResult{Ratio: tt.ratio}.Similarity())
	}
}

func TestPairResult_Columns(t *testing.T) {
	t.Run("compared", func(t *testing.T) {
		r := PairResult{
			Old: Succeeded("a b"),
			New: Succeeded("a c"),
			Diff: &DiffResult{
				OnlyOld: []string{"b"},
				OnlyNew: []string{"c"},
				Common:  []string{"a"},
				Ratio:   0.5,
			},
		}
		assert.True(t, r.Compared())
		assert.Equal(t, []string{"Success", "None", "Success", "None", "b", "c", "a", "50.00%"}, r.Columns())
	})

	t.Run("fetch failed", func(t *testing.T) {
		r := PairResult{
			Old: Succeeded("a b"),
			New: Failed("404 Client Error: Not Found for url: http://example.com/x"),
		}
		assert.False(t, r.Compared())
		assert.Equal(t, []string{
			"Success", "None",
			"Failed", "404 Client Error: Not Found for url: http://example.com/x",
			FetchErrorText, FetchErrorText, FetchErrorText, NotAvailable,
		}, r.Columns())
		assert.Len(t, r.Columns(), len(ResultHeaders))
	})
}
