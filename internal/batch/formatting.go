package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(items []Item, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(items)
	case "csv":
		return formatCSV(items)
	default: // text
		return formatText(items)
	}
}

// formatJSON formats results as JSON with a trailing summary block.
func formatJSON(items []Item) (string, error) {
	successful := 0
	for _, it := range items {
		if !it.Failed() {
			successful++
		}
	}

	out := struct {
		Documents []Item `json:"documents"`
		Summary   struct {
			Total      int `json:"total"`
			Successful int `json:"successful"`
			Failed     int `json:"failed"`
		} `json:"summary"`
	}{Documents: items}
	out.Summary.Total = len(items)
	out.Summary.Successful = successful
	out.Summary.Failed = len(items) - successful

	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

// formatCSV formats one row per document with the headline extraction
// fields.
func formatCSV(items []Item) (string, error) {
	rows := [][]string{{
		"file", "success", "vendor", "date", "total", "currency", "quality", "attempts", "error",
	}}

	for _, item := range items {
		row := []string{item.Path, strconv.FormatBool(!item.Failed())}
		if item.Result != nil && item.Result.Data != nil {
			rec := item.Result.Data
			total := ""
			if rec.Total != 0 {
				total = fmt.Sprintf("%.2f", rec.Total)
			}
			row = append(row,
				rec.Vendor,
				rec.Date,
				total,
				rec.Currency,
				fmt.Sprintf("%.1f", item.Result.Quality),
				strconv.Itoa(item.Result.Performance.AttemptsUsed),
				item.Error,
			)
		} else {
			row = append(row, "", "", "", "", "0", "0", item.Error)
		}
		rows = append(rows, row)
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText formats results as a human-readable report.
func formatText(items []Item) (string, error) {
	var output strings.Builder
	for i, item := range items {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", item.Path))

		if item.Error != "" {
			output.WriteString(fmt.Sprintf("  error: %s\n", item.Error))
			continue
		}
		if item.Result == nil || item.Result.Data == nil {
			output.WriteString("  no result\n")
			continue
		}

		rec := item.Result.Data
		if rec.Vendor != "" {
			output.WriteString(fmt.Sprintf("  vendor: %s\n", rec.Vendor))
		}
		if rec.Date != "" {
			output.WriteString(fmt.Sprintf("  date: %s\n", rec.Date))
		}
		if rec.Total != 0 {
			if rec.Currency != "" {
				output.WriteString(fmt.Sprintf("  total: %.2f %s\n", rec.Total, rec.Currency))
			} else {
				output.WriteString(fmt.Sprintf("  total: %.2f\n", rec.Total))
			}
		}
		output.WriteString(fmt.Sprintf("  quality: %.1f\n", item.Result.Quality))
		if !item.Result.Success {
			output.WriteString("  status: below quality threshold\n")
		}
	}
	return output.String(), nil
}
