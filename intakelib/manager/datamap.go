package manager

import (
	"fmt"

	"github.com/carelane/intake/libs/errors"
)

// dataMap is a thin wrapper around the generic result of unmarshalling a
// JSON object that provides typed accessors for the keys the layout
// parsing code expects.
type dataMap map[string]interface{}

func getDataMap(v interface{}) (dataMap, error) {
	switch m := v.(type) {
	case dataMap:
		return m, nil
	case map[string]interface{}:
		return dataMap(m), nil
	}
	return nil, errors.Errorf("expected a json object but got %T", v)
}

func (d dataMap) exists(key string) bool {
	_, ok := d[key]
	return ok
}

func (d dataMap) get(key string) interface{} {
	return d[key]
}

// requiredKeys returns an error naming the object being parsed if any
// of the provided keys are missing.
func (d dataMap) requiredKeys(typeName string, keys ...string) error {
	for _, key := range keys {
		if _, ok := d[key]; !ok {
			return errors.Errorf("required key %q missing for %s", key, typeName)
		}
	}
	return nil
}

// mustGetString returns the string value for the key, and the empty
// string if the key is absent or holds a non-string value.
func (d dataMap) mustGetString(key string) string {
	s, _ := d[key].(string)
	return s
}

// mustGetBool returns the bool value for the key, and false if the key
// is absent or holds a non-bool value.
func (d dataMap) mustGetBool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

func (d dataMap) getStringSlice(key string) ([]string, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("expected an array for key %q but got %T", key, v)
	}
	strs := make([]string, len(items))
	for i, item := range items {
		switch it := item.(type) {
		case string:
			strs[i] = it
		case float64:
			// numbers are acceptable as condition values; normalize to their
			// literal representation
			strs[i] = trimFloat(it)
		case bool:
			strs[i] = fmt.Sprintf("%t", it)
		default:
			return nil, errors.Errorf("expected a scalar at index %d of key %q but got %T", i, key, item)
		}
	}
	return strs, nil
}

func (d dataMap) getInterfaceSlice(key string) ([]interface{}, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("expected an array for key %q but got %T", key, v)
	}
	return items, nil
}

// dataMapForKey returns the nested object for the key, and nil if the
// key is absent.
func (d dataMap) dataMapForKey(key string) (dataMap, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := getDataMap(v)
	if err != nil {
		return nil, errors.Annotatef(err, "key %q", key)
	}
	return m, nil
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
