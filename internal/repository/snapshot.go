package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
)

// SnapshotVersion is the schema version written by EncodeSnapshot. Bare JSON
// arrays without an envelope are read as version 0.
const SnapshotVersion = 1

// Snapshot is the stored form of a cart.
type Snapshot struct {
	SchemaVersion int            `json:"schema_version"`
	SavedAt       time.Time      `json:"saved_at"`
	Lines         []SnapshotLine `json:"lines"`
}

// SnapshotLine stores a line with its display price.
type SnapshotLine struct {
	ID       domain.ProductID `json:"id"`
	Name     string           `json:"name"`
	Price    string           `json:"price"`
	Image    string           `json:"image"`
	Quantity int              `json:"quantity"`
	Category string           `json:"category"`
}

func toSnapshotLine(l domain.CartLine) SnapshotLine {
	return SnapshotLine{
		ID:       l.ID,
		Name:     l.Name,
		Price:    pricing.FormatCurrency(l.UnitPrice),
		Image:    l.Image,
		Quantity: l.Quantity,
		Category: l.Category,
	}
}

func (s SnapshotLine) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:        s.ID,
		Name:      s.Name,
		UnitPrice: pricing.ParseCurrency(s.Price),
		Image:     s.Image,
		Quantity:  s.Quantity,
		Category:  s.Category,
	}
}

// EncodeSnapshot serializes lines in the current schema.
func EncodeSnapshot(lines []domain.CartLine, savedAt time.Time) ([]byte, error) {
	snap := Snapshot{
		SchemaVersion: SnapshotVersion,
		SavedAt:       savedAt.UTC(),
		Lines:         make([]SnapshotLine, 0, len(lines)),
	}
	for _, l := range lines {
		snap.Lines = append(snap.Lines, toSnapshotLine(l))
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a current or legacy snapshot. Every failure wraps
// ErrCorruptSnapshot.
func DecodeSnapshot(data []byte) ([]domain.CartLine, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptSnapshot)
	}

	var stored []SnapshotLine
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	case '{':
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if snap.SchemaVersion != SnapshotVersion {
			return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorruptSnapshot, snap.SchemaVersion)
		}
		stored = snap.Lines
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrCorruptSnapshot)
	}

	lines := make([]domain.CartLine, 0, len(stored))
	for _, s := range stored {
		lines = append(lines, s.toDomain())
	}
	return lines, nil
}
