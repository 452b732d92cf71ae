package timetable

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pairA = Pair{Subject: "A", Teacher: "ta"}
	pairB = Pair{Subject: "B", Teacher: "tb"}
	pairC = Pair{Subject: "C", Teacher: "tc"}
)

func TestGenerateSlotsEqualPeriods(t *testing.T) {
	slots, err := GenerateSlots(4, "09:00", "17:00")
	require.NoError(t, err)
	assert.Equal(t, []TimeSlot{
		{"09:00", "11:00"}, {"11:00", "13:00"}, {"13:00", "15:00"}, {"15:00", "17:00"},
	}, slots)
}

func TestGenerateSlotsTruncatesToMinute(t *testing.T) {
	slots, err := GenerateSlots(3, "09:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, []TimeSlot{{"09:00", "09:20"}, {"09:20", "09:40"}, {"09:40", "10:00"}}, slots)

	slots, err = GenerateSlots(7, "09:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "09:08", slots[1].Start)
	assert.Equal(t, "10:00", slots[6].End)
}

func TestGenerateSlotsRejectsBadInput(t *testing.T) {
	for _, tc := range []struct {
		periods    int
		start, end string
	}{
		{0, "09:00", "17:00"},
		{-1, "09:00", "17:00"},
		{4, "17:00", "09:00"},
		{4, "09:00", "09:00"},
		{4, "9am", "17:00"},
		{120, "09:00", "10:00"},
	} {
		_, err := GenerateSlots(tc.periods, tc.start, tc.end)
		assert.ErrorIs(t, err, ErrInvalidTimeRange, "%+v", tc)
	}
}

func TestGenerateScheduleDeterministic(t *testing.T) {
	got, err := GenerateSchedule([]string{"Monday", "Tuesday"}, 5, []Pair{pairA, pairB, pairC}, Options{})
	require.NoError(t, err)
	want := []Pair{pairA, pairB, pairC, pairA, pairB}
	assert.Equal(t, Schedule{"Monday": want, "Tuesday": want}, got)
}

func TestGenerateScheduleRandomizedIsSeeded(t *testing.T) {
	pairs := []Pair{pairA, pairB, pairC}
	days := []string{"Monday", "Wednesday", "Friday"}

	first, err := GenerateSchedule(days, 6, pairs, Options{Randomize: true, Rand: rand.New(rand.NewSource(42))})
	require.NoError(t, err)
	second, err := GenerateSchedule(days, 6, pairs, Options{Randomize: true, Rand: rand.New(rand.NewSource(42))})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, day := range days {
		seq := first[day]
		require.Len(t, seq, 6)
		counts := map[Pair]int{}
		for _, p := range seq {
			counts[p]++
		}
		// Six periods over three pairs: each pair fills exactly two.
		assert.Equal(t, map[Pair]int{pairA: 2, pairB: 2, pairC: 2}, counts)
	}
	assert.Equal(t, []Pair{pairA, pairB, pairC}, pairs)
}

func TestGenerateScheduleEmptySelection(t *testing.T) {
	_, err := GenerateSchedule(nil, 3, []Pair{pairA}, Options{})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = GenerateSchedule([]string{"Monday"}, 3, nil, Options{Randomize: true})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = GenerateSchedule([]string{"Monday"}, 0, []Pair{pairA}, Options{})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = GenerateSchedule([]string{"Funday"}, 2, []Pair{pairA}, Options{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalizeDays(t *testing.T) {
	days, err := NormalizeDays([]string{"friday", "Mon", "Friday", " Tuesday "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Friday", "Monday", "Tuesday"}, days)
}

func TestBreakPeriods(t *testing.T) {
	slots, err := GenerateSlots(DefaultPeriods, "09:00", "15:00")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, BreakPeriods(slots, TimeSlot{Start: "13:00", End: "14:00"}))
	assert.Empty(t, BreakPeriods(slots, TimeSlot{Start: "13:30", End: "14:00"}))
}

func TestCatalogForReturnsCopy(t *testing.T) {
	pairs, ok := CatalogFor("IT")
	require.True(t, ok)
	require.Len(t, pairs, 5)
	pairs[0].Subject = "changed"

	again, _ := CatalogFor("IT")
	assert.Equal(t, "Programming", again[0].Subject)

	_, ok = CatalogFor("Law")
	assert.False(t, ok)
}
