package service

import (
	"context"
	"fmt"
	"strings"
)

var csvHeader = []string{"Employee ID", "Name", "Shifts", "Hours", "Base Pay", "Adjustments", "Net Pay"}

// Export is a rendered CSV payroll report
type Export struct {
	Filename string
	Data     []byte
}

// ExportCSV renders the latest run for a period as CSV. An employee code
// narrows the report to one employee's line.
func (s *PayrollService) ExportCSV(ctx context.Context, month, year int, employeeCode string) (*Export, error) {
	result, err := s.GetPeriod(ctx, month, year)
	if err != nil {
		return nil, err
	}

	items := result.Items
	if employeeCode != "" {
		filtered := items[:0]
		for _, item := range items {
			if item.EmployeeCode == employeeCode {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, item := range items {
		b.WriteString("\n")
		writeCSVRow(&b, []string{
			item.EmployeeCode,
			fmt.Sprintf("%s %s", item.FirstName, item.LastName),
			fmt.Sprintf("%d", item.TotalShifts),
			fmt.Sprintf("%.2f", item.TotalHours),
			fmt.Sprintf("%.2f", item.BasePay),
			fmt.Sprintf("%.2f", item.AdjustmentsTotal),
			fmt.Sprintf("%.2f", item.NetPay),
		})
	}

	filename := fmt.Sprintf("payroll-%d-%02d", year, month)
	if employeeCode != "" {
		filename += "-" + employeeCode
	}
	filename += ".csv"

	return &Export{Filename: filename, Data: []byte(b.String())}, nil
}

// writeCSVRow writes one row with every value quoted, doubling any
// embedded quotes.
func writeCSVRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`"`)
		b.WriteString(strings.ReplaceAll(v, `"`, `""`))
		b.WriteString(`"`)
	}
}
