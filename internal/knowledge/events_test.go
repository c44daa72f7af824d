package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleEvents_Parse(t *testing.T) {
	events, err := SampleEvents()
	require.NoError(t, err)
	require.NotEmpty(t, events)

	kb := Default()
	delisted := 0
	for _, e := range events {
		assert.NotEmpty(t, e.Title, e.EventID)
		assert.NotEmpty(t, e.Dates, e.EventID)
		if kb.IsDelisted(e) {
			delisted++
		}
	}
	assert.Equal(t, 1, delisted)
}

func TestParseEvents(t *testing.T) {
	events, err := ParseEvents([]byte(`
events:
  - id: e1
    title: Test Show
    dates:
      - date: 2026-01-02T19:30:00+08:00
        label: 首演
    price: NT$500
`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "NT$500", events[0].PriceInfo)
	assert.Equal(t, "首演", events[0].Dates[0].Label)
	assert.Equal(t, 19, events[0].Dates[0].Date.Hour())

	_, err = ParseEvents([]byte("events:\n  - title: no id\n"))
	assert.Error(t, err)
}
