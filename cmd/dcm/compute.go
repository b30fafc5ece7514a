package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osse101/DCM_Go/internal/database/memory"
	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/payout"
	"github.com/osse101/DCM_Go/internal/report"
	"github.com/osse101/DCM_Go/internal/settlement"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type computeOptions struct {
	file         string
	participants string
	winner       string
	leverage     float64
	format       string
	xlsxPath     string
}

// computeOutput is the JSON form of a settlement
type computeOutput struct {
	*domain.Settlement
	Summary report.Summary `json:"summary"`
}

func newComputeCmd() *cobra.Command {
	var opts computeOptions

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Settle one market and print the payouts",
		Long: `Settle one market. Input comes either from a JSON file with the same
shape as the API request body, or from the compact participant form.

Examples:
  dcm compute --participants "A:100:80:YES; B:100:30:YES; C:100:60:NO" --winner YES --leverage 5
  dcm compute --file market.json --format json
  cat market.json | dcm compute --file - --xlsx payouts.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}
			return runCompute(cmd, req, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON market file, '-' for stdin")
	cmd.Flags().StringVarP(&opts.participants, "participants", "p", "", "name:stake:confidence:side entries separated by ';'")
	cmd.Flags().StringVarP(&opts.winner, "winner", "w", "", "winning side (YES or NO)")
	cmd.Flags().Float64VarP(&opts.leverage, "leverage", "l", payout.DefaultLeverageBound, "leverage bound, at least 1")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "output format: table|json")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "also write the settlement to this XLSX workbook")
	cmd.MarkFlagsMutuallyExclusive("file", "participants")
	cmd.MarkFlagsOneRequired("file", "participants")

	return cmd
}

// request builds the market from flags. Flags given next to --file
// override the file's winner and leverage bound.
func (o computeOptions) request(cmd *cobra.Command) (*domain.ComputeRequest, error) {
	if o.format != formatTable && o.format != formatJSON {
		return nil, fmt.Errorf("unknown format %q (expected %s or %s)", o.format, formatTable, formatJSON)
	}

	req := &domain.ComputeRequest{}
	if o.file != "" {
		if err := readMarketFile(cmd.InOrStdin(), o.file, req); err != nil {
			return nil, err
		}
		if req.Participants == nil {
			req.Participants = []domain.Participant{}
		}
	} else {
		participants, err := payout.ParseParticipants(o.participants)
		if err != nil {
			return nil, err
		}
		req.Participants = participants
	}

	if o.winner != "" {
		side, err := payout.ParseSide(o.winner)
		if err != nil {
			return nil, err
		}
		req.WinningSide = side
	}
	if !req.WinningSide.Valid() {
		return nil, fmt.Errorf("%w: set --winner to YES or NO", domain.ErrInvalidSide)
	}

	if cmd.Flags().Changed("leverage") || req.LeverageBound == nil {
		leverage := o.leverage
		req.LeverageBound = &leverage
	}
	return req, nil
}

func readMarketFile(stdin io.Reader, path string, req *domain.ComputeRequest) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open market file: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("failed to decode market file: %w", err)
	}
	return nil
}

func runCompute(cmd *cobra.Command, req *domain.ComputeRequest, opts computeOptions) error {
	svc := settlement.NewService(memory.NewScenarioRepository(), nil, settlement.Config{
		DefaultLeverageBound: payout.DefaultLeverageBound,
	})
	ctx := settlement.WithSource(cmd.Context(), settlement.SourceCLI)
	defer func() { _ = svc.Shutdown(ctx) }()

	result, err := svc.Compute(ctx, req)
	if err != nil {
		if verr, ok := payout.AsValidationError(err); ok {
			printViolations(cmd.ErrOrStderr(), verr)
		}
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(computeOutput{Settlement: result, Summary: report.Summarize(result)}); err != nil {
			return fmt.Errorf("failed to encode settlement: %w", err)
		}
	default:
		fmt.Fprint(out, report.FormatTable(result))
	}

	if opts.xlsxPath != "" {
		if err := writeWorkbook(opts.xlsxPath, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.xlsxPath)
	}
	return nil
}

func printViolations(w io.Writer, verr *payout.ValidationError) {
	violations := slices.Clone(verr.Violations)
	slices.SortStableFunc(violations, func(a, b payout.Violation) int {
		return strings.Compare(a.Path(), b.Path())
	})
	for _, v := range violations {
		fmt.Fprintf(w, "  %s: %s\n", v.Path(), v.Detail())
	}
}

func writeWorkbook(path string, s *domain.Settlement) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := report.WriteXLSX(f, s); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
