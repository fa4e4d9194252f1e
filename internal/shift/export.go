package shift

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const cashierSheet = "Sif Kasir"

// CashierReportXLSX renders one cashier shift report as a workbook with a
// summary block followed by the cash-in and expense ledgers.
func CashierReportXLSX(r *CashierReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(cashierSheet)
	if err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f}

	end := "-"
	if r.End != nil {
		end = r.End.Format("2006-01-02 15:04")
	}
	finalCash := any("-")
	if r.FinalCash != nil {
		finalCash = *r.FinalCash
	}
	variance := any("-")
	if r.Variance != nil {
		variance = *r.Variance
	}

	summary := [][2]any{
		{"ID Sif", r.ID},
		{"Cabang", r.BranchID},
		{"Mulai", r.Start.Format("2006-01-02 15:04")},
		{"Selesai", end},
		{"Kas Awal", r.InitialCash},
		{"Kas Akhir", finalCash},
		{"Pembayaran Tunai", r.CashPayment},
		{"Pembayaran Digital", r.DigitalPayment},
		{"Total Kas Masuk", r.TotalCashIn},
		{"Total Pengeluaran", r.TotalExpense},
		{"Total Refund", r.TotalRefund},
		{"Pendapatan", r.Income},
		{"Pendapatan Bersih", r.NetIncome},
		{"Kas Seharusnya", r.ExpectedCash},
		{"Selisih", variance},
		{"Jumlah Pesanan", r.Orders.Total},
		{"Pesanan Selesai", r.Orders.Completed},
		{"Pesanan Batal", r.Orders.Canceled},
	}
	row := 1
	for _, kv := range summary {
		w.row(row, kv[0], kv[1])
		row++
	}
	w.style("A1", fmt.Sprintf("A%d", row-1), bold)

	row++
	row = w.table(row, bold, []string{"Kas Masuk", "Jumlah", "Waktu"}, len(r.CashIns), func(i int) []any {
		ci := r.CashIns[i]
		return []any{ci.Description, ci.Amount, ci.CreatedAt.Format("2006-01-02 15:04")}
	})

	row++
	w.table(row, bold, []string{"Pengeluaran", "Jumlah", "Harga Satuan", "Total", "Waktu"}, len(r.CashOuts), func(i int) []any {
		co := r.CashOuts[i]
		return []any{co.Description, co.Quantity, co.UnitPrice, co.Amount, co.CreatedAt.Format("2006-01-02 15:04")}
	})

	w.width("A", "A", 28)
	w.width("B", "E", 18)
	if w.err != nil {
		return nil, fmt.Errorf("write cashier sheet: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first excelize error and skips every call after it.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(row int, values ...any) {
	for c, v := range values {
		if w.err != nil {
			return
		}
		var cell string
		cell, w.err = excelize.CoordinatesToCellName(c+1, row)
		if w.err == nil {
			w.err = w.f.SetCellValue(cashierSheet, cell, v)
		}
	}
}

func (w *sheetWriter) style(from, to string, style int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(cashierSheet, from, to, style)
	}
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(cashierSheet, from, to, width)
	}
}

// table writes a header plus n rows starting at row and returns the next
// free row.
func (w *sheetWriter) table(row int, headerStyle int, header []string, n int, values func(i int) []any) int {
	hs := make([]any, len(header))
	for i, h := range header {
		hs[i] = h
	}
	w.row(row, hs...)
	w.style(fmt.Sprintf("A%d", row), fmt.Sprintf("%c%d", 'A'+len(header)-1, row), headerStyle)
	row++
	for i := 0; i < n; i++ {
		w.row(row, values(i)...)
		row++
	}
	return row
}
