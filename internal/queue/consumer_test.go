package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() StockSavedEvent {
	q := uint32(40)
	return StockSavedEvent{
		EventID:              "9b2f",
		Kind:                 StockCreated,
		StockID:              7,
		OfferID:              3,
		DepartmentCode:       "973",
		BeginningDatetime:    "2020-12-20T22:00:00Z",
		BookingLimitDatetime: "2020-12-20T02:59:59Z",
		PriceCents:           1500,
		Quantity:             &q,
		OccurredAt:           "2020-12-01T10:00:00Z",
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleEvent())
	assert.True(t, strings.HasPrefix(line, "[2020-12-01T10:00:00Z] Stock created | stock_id=7 | offer_id=3"))
	assert.Contains(t, line, `department="973"`)
	assert.Contains(t, line, "booking_limit=2020-12-20T02:59:59Z")
	assert.Contains(t, line, "quantity=40")
	assert.True(t, strings.HasSuffix(line, "\n"))

	ev := sampleEvent()
	ev.Quantity = nil
	assert.Contains(t, FormatLine(ev), "quantity=unlimited")
}

func TestHandleMessage_AppendsToLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	require.NoError(t, HandleMessage(body, dir))
	require.NoError(t, HandleMessage(body, dir))

	b, err := os.ReadFile(filepath.Join(dir, "stock.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "stock_id=7"))
}

func TestHandleMessage_Rejects(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, HandleMessage([]byte("{not json"), dir))
	assert.Error(t, HandleMessage([]byte(`{"kind":"created"}`), dir))
}
