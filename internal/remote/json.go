package remote

import "github.com/bytedance/sonic"

// DecodeJSONLenient unmarshals content into v, first trying it verbatim and
// then, on failure, retrying against the first balanced {...} object found
// inside it. Remote models occasionally wrap their JSON in prose or markdown
// fences despite being asked for a bare object.
func DecodeJSONLenient(content string, v any) error {
	if err := sonic.UnmarshalString(content, v); err == nil {
		return nil
	}
	if obj, ok := extractFirstJSONObject(content); ok {
		return sonic.UnmarshalString(obj, v)
	}
	return sonic.UnmarshalString(content, v)
}
