package payout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osse101/DCM_Go/internal/domain"
)

// ParseSide converts a case-insensitive YES/NO string into a Side
func ParseSide(s string) (domain.Side, error) {
	side := domain.Side(strings.ToUpper(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSide, s)
	}
	return side, nil
}

// ParseParticipants reads the compact form used by chat commands and the CLI:
//
//	A:100:80:YES; B:100:30:YES; C:100:60:NO
//
// Entries are separated by ';' or newlines. Numbers must parse as plain
// floats; no coercion of other text is attempted. Range checks are left to
// the engine so that every caller gets the same validation.
func ParseParticipants(input string) ([]domain.Participant, error) {
	normalized := strings.ReplaceAll(input, "\n", entrySeparator)

	var participants []domain.Participant
	for _, raw := range strings.Split(normalized, entrySeparator) {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		idx := len(participants)

		parts := strings.Split(entry, fieldSeparator)
		if len(parts) != entryFieldCount {
			return nil, fmt.Errorf("%w %d (%q): expected name:stake:confidence:side",
				domain.ErrInvalidParticipantRow, idx, entry)
		}

		name := strings.TrimSpace(parts[0])
		stake, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w %d (%q): %s is not a number", domain.ErrInvalidParticipantRow, idx, name, FieldStake)
		}
		confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w %d (%q): %s is not a number", domain.ErrInvalidParticipantRow, idx, name, FieldConfidence)
		}
		side, err := ParseSide(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w %d (%q): %w", domain.ErrInvalidParticipantRow, idx, name, err)
		}

		participants = append(participants, domain.Participant{
			Name:       name,
			Stake:      stake,
			Confidence: confidence,
			Side:       side,
		})
	}

	if participants == nil {
		participants = []domain.Participant{}
	}
	return participants, nil
}
