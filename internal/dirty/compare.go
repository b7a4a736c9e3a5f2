package dirty

import (
	"encoding/json"
	"reflect"
)

// Changed reports whether current differs structurally from snapshot.
// Both sides are compared in their JSON form, so a nil list equals an empty
// one and field order never matters. Values that cannot be marshalled are
// treated as changed.
func Changed(snapshot, current interface{}) bool {
	a, err := normalize(snapshot)
	if err != nil {
		return true
	}
	b, err := normalize(current)
	if err != nil {
		return true
	}
	return !reflect.DeepEqual(a, b)
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return emptyToNil(out), nil
}

func emptyToNil(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		if len(x) == 0 {
			return nil
		}
		for i := range x {
			x[i] = emptyToNil(x[i])
		}
		return x
	case map[string]interface{}:
		for k, val := range x {
			x[k] = emptyToNil(val)
		}
		return x
	default:
		return v
	}
}
