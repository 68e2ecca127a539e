package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"stocksim/internal/domain"
)

func WriteTradesToCSV(trades []domain.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"timestamp", "side", "symbol", "quantity", "price", "value"})

	for _, t := range trades {
		writer.Write([]string{
			t.Timestamp.UTC().Format(time.RFC3339),
			string(t.Side),
			t.Symbol,
			strconv.FormatInt(t.Quantity, 10),
			t.Price.String(),
			t.Value().String(),
		})
	}
	return writer.Error()
}
