package report

import (
	"bytes"
	"fmt"
	"time"

	"simdash/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "summary"
	checkupsSheet = "checkups"
)

var checkupHeader = []string{"Checkup ID", "Timestamp (UTC)", "Temperature (°C)", "Status", "Simulation ID"}

// BuildCheckupsXLSX renders the checkup history as a workbook with a summary
// sheet and one row per checkup, in the order given.
func BuildCheckupsXLSX(events []models.CheckupEvent, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(checkupsSheet); err != nil {
		return nil, err
	}

	critical := 0
	minT, maxT, sum := 0, 0, 0
	for i, e := range events {
		if e.Status == models.StatusCritical {
			critical++
		}
		if i == 0 || e.Temperature < minT {
			minT = e.Temperature
		}
		if i == 0 || e.Temperature > maxT {
			maxT = e.Temperature
		}
		sum += e.Temperature
	}
	avg := 0.0
	if len(events) > 0 {
		avg = float64(sum) / float64(len(events))
	}

	summary := [][]any{
		{"Checkup History"},
		{},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Checkups", len(events)},
		{"Critical", critical},
		{"Normal", len(events) - critical},
		{"Min (°C)", minT},
		{"Max (°C)", maxT},
		{"Average (°C)", fmt.Sprintf("%.1f", avg)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	header := make([]any, len(checkupHeader))
	for i, h := range checkupHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(checkupsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, e := range events {
		row := []any{e.CheckupID, e.Timestamp.UTC().Format(time.RFC3339), e.Temperature, e.Status, e.SimulationID}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(checkupsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
