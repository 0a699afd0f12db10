package portfolio

import (
	"encoding/csv"
	"os"
	"strconv"

	"portfolioEngine/internal/domain"
)

// WriteCurveCSV writes an equity curve to a CSV file, one row per point.
func WriteCurveCSV(points []domain.EquityPoint, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"label", "cumulative_realized", "cumulative_total"})

	for _, p := range points {
		writer.Write([]string{
			p.Label,
			strconv.FormatFloat(p.CumulativeRealized, 'f', -1, 64),
			strconv.FormatFloat(p.CumulativeTotal, 'f', -1, 64),
		})
	}
	return writer.Error()
}
