package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/payout"
)

// WriteXLSX writes a workbook with a Results sheet (one row per participant)
// and a Pools sheet (side totals and the settlement parameters)
func WriteXLSX(w io.Writer, s *domain.Settlement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if err := writeResults(f, s); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetPools); err != nil {
		return fmt.Errorf("failed to add pools sheet: %w", err)
	}
	if err := writePools(f, s); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeResults(f *excelize.File, s *domain.Settlement) error {
	header := make([]interface{}, len(resultHeaders))
	for i, h := range resultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetResults, "A1", &header); err != nil {
		return err
	}

	for i, r := range s.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Name,
			string(r.Side),
			r.Stake,
			payout.ClampConfidence(r.Confidence),
			r.Multiplier,
			r.Weight,
			r.Payout,
			r.Profit,
		}
		if err := f.SetSheetRow(SheetResults, cell, &row); err != nil {
			return err
		}
	}

	if len(s.Results) == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(resultHeaders), len(s.Results)+1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetResults, "C2", last, style)
}

func writePools(f *excelize.File, s *domain.Settlement) error {
	rows := [][]interface{}{
		{"Side", "Participants", "Total stake", "Total weight"},
		{string(domain.SideYes), s.Pools.Yes.Participants, s.Pools.Yes.TotalStake, s.Pools.Yes.TotalWeight},
		{string(domain.SideNo), s.Pools.No.Participants, s.Pools.No.TotalStake, s.Pools.No.TotalWeight},
		{},
		{"Winning side", string(s.WinningSide)},
		{"Leverage bound", s.LeverageBound},
		{"Policy", s.Policy},
		{"Losing pool", s.Pools.LosingPool},
		{"Winner total weight", s.Pools.WinnerTotalWeight},
		{"Unclaimed", s.Pools.Unclaimed},
		{"Total payout", s.TotalPayout()},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetPools, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
