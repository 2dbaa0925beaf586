package cache

import "encoding/json"

func encodeStoredValue(sv storedValue) ([]byte, error) {
	return json.Marshal(sv)
}

func decodeStoredValue(raw []byte) (storedValue, error) {
	var sv storedValue
	err := json.Unmarshal(raw, &sv)
	return sv, err
}
