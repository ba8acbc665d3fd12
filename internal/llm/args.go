package llm

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// decodeArgs parses a model-emitted argument string. Models truncate and
// mangle JSON often enough that a failed parse goes through jsonrepair
// before the call is given up on.
func decodeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable tool arguments: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, fmt.Errorf("tool arguments invalid after repair: %w", err)
	}
	return args, nil
}
