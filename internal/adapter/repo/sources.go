package repo

import (
	"encoding/json"
	"fmt"

	"genstudio/internal/domain"
)

// encodeSources serializes citations; no citations store NULL.
func encodeSources(sources []domain.Source) ([]byte, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("encode sources: %w", err)
	}
	return raw, nil
}

func decodeSources(raw []byte) ([]domain.Source, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var sources []domain.Source
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return sources, nil
}
