package query

import (
	"encoding/json"
	"fmt"
)

// Project trims a JSON-serializable value (object or list of objects) to the
// given keys. "id" is always kept. With no fields v is returned as is.
func Project(v interface{}, fields []string) (interface{}, error) {
	if len(fields) == 0 {
		return v, nil
	}

	keep := map[string]struct{}{"id": {}}
	for _, f := range fields {
		keep[f] = struct{}{}
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal projection source: %w", err)
	}

	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			trim(item, keep)
		}
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("cannot project %T: %w", v, err)
	}
	trim(obj, keep)
	return obj, nil
}

func trim(obj map[string]json.RawMessage, keep map[string]struct{}) {
	for k := range obj {
		if _, ok := keep[k]; !ok {
			delete(obj, k)
		}
	}
}
