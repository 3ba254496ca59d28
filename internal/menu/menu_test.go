package menu_test

import (
	"testing"

	"recoveryctl/internal/menu"
	"recoveryctl/internal/menu/menutest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseItems() []menu.Item {
	return []menu.Item{
		menu.Shown("Report Error"),
		menu.Shown("Show log"),
		menu.Hidden(),
		menu.Shown("Partition /storage/sdcard1"),
		menu.Hidden(),
		menu.Shown("Partition /storage/usbdisk"),
	}
}

func TestSelectFilteredCompactsView(t *testing.T) {
	s := menutest.New(2)
	got := menu.SelectFiltered(s, []string{"Advanced"}, denseItems(), true, 0)

	require.Len(t, s.Prompts, 1)
	p := s.Prompts[0]
	assert.Equal(t, []string{
		"Report Error",
		"Show log",
		"Partition /storage/sdcard1",
		"Partition /storage/usbdisk",
	}, p.Items)
	assert.Equal(t, []string{"Advanced"}, p.Headers)
	assert.True(t, p.MenuOnly)
	assert.Equal(t, 3, got)
}

func TestSelectFilteredRoundTrip(t *testing.T) {
	items := denseItems()
	for compact := 0; compact < 4; compact++ {
		s := menutest.New(compact)
		dense := menu.SelectFiltered(s, nil, items, false, 0)
		require.GreaterOrEqual(t, dense, 0)
		assert.Equal(t, s.Prompts[0].Items[compact], items[dense].Label)
	}
}

func TestSelectFilteredInitialTranslation(t *testing.T) {
	items := denseItems()
	tests := []struct {
		dense   int
		compact int
	}{
		{0, 0},
		{1, 1},
		{3, 2},
		{5, 3},
		// Absent slots land on the next present one
		{2, 2},
		{4, 3},
		// Out of range falls back to the top
		{9, 0},
	}
	for _, tt := range tests {
		s := menutest.New(menu.GoBack)
		menu.SelectFiltered(s, nil, items, false, tt.dense)
		assert.Equal(t, tt.compact, s.Prompts[0].Initial, "dense %d", tt.dense)
	}
}

func TestSelectFilteredSentinels(t *testing.T) {
	for _, raw := range []int{menu.GoBack, menu.Refresh, 4, 17} {
		s := menutest.New(raw)
		got := menu.SelectFiltered(s, nil, denseItems(), false, 0)
		assert.Equal(t, raw, got)
	}
}

func TestSelectFilteredNoAbsentSlots(t *testing.T) {
	items := []menu.Item{menu.Shown("a"), menu.Shown("b"), menu.Shown("c")}
	s := menutest.New(2)
	assert.Equal(t, 2, menu.SelectFiltered(s, nil, items, false, 1))
	assert.Equal(t, 1, s.Prompts[0].Initial)
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, menu.IsSentinel(menu.GoBack))
	assert.True(t, menu.IsSentinel(menu.Refresh))
	assert.False(t, menu.IsSentinel(0))
}

type action int

const (
	actPrimary action = iota
	actVolume
	actSideload
	actToggle
)

func TestBuilderDispatchesByValue(t *testing.T) {
	build := func(volumes ...string) *menu.Builder[action] {
		b := menu.NewBuilder[action]().Add("Choose zip from /sdcard", actPrimary)
		for _, v := range volumes {
			b.Addf(actVolume, "Choose zip from %s", v)
		}
		b.Add("Install zip from sideload", actSideload)
		b.AddHidden("Toggle target", actToggle, true)
		return b
	}

	// The same label is selected regardless of how many volumes come first
	for _, vols := range [][]string{nil, {"/storage/sdcard1"}, {"/storage/sdcard1", "/storage/usbdisk"}} {
		s := menutest.New().ChooseLabel("Install zip from sideload")
		b := build(vols...)
		entry, idx, ok := b.Select(s, nil, 0)
		require.True(t, ok)
		assert.Equal(t, actSideload, entry.Value)
		assert.Equal(t, len(vols)+1, idx)
		assert.Len(t, s.Prompts[0].Items, len(vols)+2, "hidden entry must not be shown")
	}
}

func TestBuilderBack(t *testing.T) {
	b := menu.NewBuilder[string]().Add("one", "1").Add("two", "2")

	s := menutest.New().Back()
	entry, idx, ok := b.Select(s, nil, 0)
	assert.False(t, ok)
	assert.Equal(t, menu.GoBack, idx)
	assert.Empty(t, entry.Value)

	s = menutest.New(menu.Refresh)
	_, idx, ok = b.Select(s, nil, 1)
	assert.False(t, ok)
	assert.Equal(t, menu.Refresh, idx)
	assert.Equal(t, 1, s.Prompts[0].Initial)
}

func TestBuilderHiddenSlotKeepsDenseIndex(t *testing.T) {
	b := menu.NewBuilder[string]().
		Add("Report Error", "report").
		AddHidden("Toggle storage target", "target", true).
		Add("Partition /storage/sdcard1", "partition")

	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Items()[1].Absent)

	s := menutest.New(1)
	entry, idx, ok := b.Select(s, nil, 0)
	require.True(t, ok)
	assert.Equal(t, "partition", entry.Value)
	assert.Equal(t, 2, idx)
}
