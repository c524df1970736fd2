package catalog

import (
	"encoding/json"
	"fmt"
)

type etcdEntry struct {
	Label string `json:"label,omitempty"`
	Order int    `json:"order"`
}

func marshalEtcdValue(e etcdEntry) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalEtcdValue(raw []byte) (etcdEntry, error) {
	var e etcdEntry
	if len(raw) == 0 {
		return e, nil
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return etcdEntry{}, fmt.Errorf("decode etcd value: %w", err)
	}
	return e, nil
}
