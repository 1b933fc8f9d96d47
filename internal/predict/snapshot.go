package predict

import (
	"encoding/json"
	"fmt"
)

// Snapshot serialises the trained model so it can be cached and restored.
func (p *Predictor) Snapshot() ([]byte, error) {
	if p.model == nil {
		return nil, ErrNotTrained
	}
	data, err := json.Marshal(p.model)
	if err != nil {
		return nil, fmt.Errorf("encoding model: %w", err)
	}
	return data, nil
}

// Restore replaces the predictor state with a previously snapshotted model.
func (p *Predictor) Restore(data []byte) error {
	var m model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding model: %w", err)
	}
	if m.Forest == nil || len(m.Forest.Trees) == 0 || m.Scaler == nil ||
		m.Department == nil || m.Level == nil || m.Generation == nil {
		return fmt.Errorf("decoding model: incomplete snapshot")
	}
	for _, enc := range []*Encoder{m.Department, m.Level, m.Generation} {
		enc.reindex()
	}
	p.model = &m
	return nil
}
