package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	testLogger := logrus.New()
	testLogger.SetLevel(logrus.DebugLevel)
	SetLogger(testLogger)
}

func TestDetectFromCurrencyColumn(t *testing.T) {
	header := []string{"Type", "Description", "Amount", "Currency"}
	records := [][]string{
		{"CARD_PAYMENT", "Spotify", "-1490", "HUF"},
		{"CARD_PAYMENT", "Lidl", "-5200", "huf "},
		{"TOPUP", "Top-Up", "10000", "EUR"},
	}

	// Mode of the column wins, case and whitespace normalized.
	assert.Equal(t, "HUF", Detect(header, records, "USD"))
}

func TestDetectFromColumnName(t *testing.T) {
	header := []string{"Description", "Amount", "Original Currency"}
	records := [][]string{
		{"Coffee", "-3.50", "chf"},
	}

	assert.Equal(t, "CHF", Detect(header, records, "USD"))
}

func TestDetectFromSymbolInAmount(t *testing.T) {
	header := []string{"Description", "Amount"}
	records := [][]string{
		{"Coffee", "-3.50 zł"},
	}

	assert.Equal(t, "PLN", Detect(header, records, "USD"))
}

func TestDetectSharedSymbolDeterministic(t *testing.T) {
	// "¥" belongs to both JPY and CNY and "kr" to SEK/NOK/DKK; the first
	// code in symbolOrder must win on every call.
	yen := []string{"Description", "Amount"}
	yenRecords := [][]string{{"Duty free", "¥1000"}}
	krone := [][]string{{"Ferry ticket", "120 kr"}}

	for i := 0; i < 200; i++ {
		assert.Equal(t, "JPY", Detect(yen, yenRecords, "HUF"))
		assert.Equal(t, "SEK", Detect(yen, krone, "HUF"))
	}
}

func TestDetectSharedCodeDeterministic(t *testing.T) {
	header := []string{"Description", "Amount", "Currency info"}
	// "SEKNOK" contains both codes; SEK is listed first.
	records := [][]string{{"FX trade", "-100", "SEKNOK"}}

	for i := 0; i < 200; i++ {
		assert.Equal(t, "SEK", Detect(header, records, "HUF"))
	}
}

func TestDetectFallback(t *testing.T) {
	header := []string{"Description", "Amount"}
	records := [][]string{
		{"Coffee", "-3.50"},
	}

	assert.Equal(t, "USD", Detect(header, records, "USD"))
	assert.Equal(t, DefaultFallback, Detect(header, records, ""))
}

func TestDecimals(t *testing.T) {
	assert.Equal(t, 0, Decimals("HUF"))
	assert.Equal(t, 0, Decimals("jpy"))
	assert.Equal(t, 2, Decimals("EUR"))
	assert.Equal(t, 2, Decimals("XYZ"))
}

func TestRound(t *testing.T) {
	assert.Equal(t, "-1490", Round(decimal.RequireFromString("-1489.6"), "HUF").String())
	assert.Equal(t, "-57.51", Round(decimal.RequireFromString("-57.505"), "EUR").String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "-1490 Ft", Format(decimal.NewFromInt(-1490), "HUF", false))
	assert.Equal(t, "€12.50", Format(decimal.RequireFromString("12.5"), "EUR", false))
	assert.Equal(t, "1.5k Ft", Format(decimal.NewFromInt(1500), "HUF", true))
	assert.Equal(t, "$2.0M", Format(decimal.NewFromInt(2_000_000), "USD", true))
}
