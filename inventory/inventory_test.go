package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAddMergesIdenticalCost(t *testing.T) {
	inv := New()
	inv.Add(d("10"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})

	lots := inv.Lots()
	assert.Equal(t, 1, len(lots))
	assert.True(t, d("15").Equal(lots[0].Units))
}

func TestAddDistinctCostCreatesSeparateLots(t *testing.T) {
	inv := New()
	inv.Add(d("10"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("110"), Currency: "USD"})

	assert.Equal(t, 2, len(inv.Lots()))
}

func TestStrictReductionAmbiguous(t *testing.T) {
	inv := New()
	inv.Add(d("10"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("110"), Currency: "USD"})

	_, err := inv.Reduce(STRICT, "HOOL", d("3"), MatchSpec{})
	assert.Error(t, err)

	var ambiguous *AmbiguousMatchError
	assert.True(t, errors.As(err, &ambiguous))
}

func TestStrictReductionUnambiguousByLabel(t *testing.T) {
	inv := New()
	inv.Add(d("10"), "HOOL", &Cost{Number: d("100"), Currency: "USD", Label: "lot-a"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("110"), Currency: "USD", Label: "lot-b"})

	label := "lot-a"
	reductions, err := inv.Reduce(STRICT, "HOOL", d("3"), MatchSpec{Label: &label})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reductions))
	assert.True(t, d("3").Equal(reductions[0].Units))
	assert.True(t, d("12").Equal(inv.Balance("HOOL")))
}

func TestFIFOReducesOldestFirstAndSpillsAcrossLots(t *testing.T) {
	inv := New()
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	inv.Add(d("5"), "HOOL", &Cost{Number: d("100"), Currency: "USD", Date: early})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("120"), Currency: "USD", Date: late})

	reductions, err := inv.Reduce(FIFO, "HOOL", d("7"), MatchSpec{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(reductions))
	assert.True(t, d("100").Equal(reductions[0].Lot.Cost.Number))
	assert.True(t, d("5").Equal(reductions[0].Units))
	assert.True(t, d("120").Equal(reductions[1].Lot.Cost.Number))
	assert.True(t, d("2").Equal(reductions[1].Units))
}

func TestLIFOReducesNewestFirst(t *testing.T) {
	inv := New()
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	inv.Add(d("5"), "HOOL", &Cost{Number: d("100"), Currency: "USD", Date: early})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("120"), Currency: "USD", Date: late})

	reductions, err := inv.Reduce(LIFO, "HOOL", d("3"), MatchSpec{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reductions))
	assert.True(t, d("120").Equal(reductions[0].Lot.Cost.Number))
}

func TestHIFOReducesHighestCostFirst(t *testing.T) {
	inv := New()
	inv.Add(d("5"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("150"), Currency: "USD"})
	inv.Add(d("5"), "HOOL", &Cost{Number: d("120"), Currency: "USD"})

	reductions, err := inv.Reduce(HIFO, "HOOL", d("5"), MatchSpec{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reductions))
	assert.True(t, d("150").Equal(reductions[0].Lot.Cost.Number))
}

func TestAverageMergesLotsAndReducesProportionally(t *testing.T) {
	inv := New()
	inv.Add(d("10"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})
	inv.Add(d("10"), "HOOL", &Cost{Number: d("120"), Currency: "USD"})

	reductions, err := inv.Reduce(AVERAGE, "HOOL", d("5"), MatchSpec{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reductions))
	assert.True(t, d("110").Equal(reductions[0].Lot.Cost.Number))
	assert.True(t, d("15").Equal(inv.Balance("HOOL")))
}

func TestNoneAllowsNegativeInventory(t *testing.T) {
	inv := New()
	reductions, err := inv.Reduce(NONE, "HOOL", d("5"), MatchSpec{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reductions))
	assert.True(t, d("-5").Equal(inv.Balance("HOOL")))
}

func TestReduceInsufficientUnits(t *testing.T) {
	inv := New()
	inv.Add(d("2"), "HOOL", &Cost{Number: d("100"), Currency: "USD"})

	_, err := inv.Reduce(FIFO, "HOOL", d("5"), MatchSpec{})
	assert.Error(t, err)

	var insufficient *InsufficientUnitsError
	assert.True(t, errors.As(err, &insufficient))
}
