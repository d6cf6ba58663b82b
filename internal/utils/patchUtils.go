package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DecodePatch reads a JSON object from body, decodes it into out using the
// json tag names, and returns the raw map so callers can tell an absent key
// from an explicit null.
func DecodePatch(body io.Reader, out interface{}) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: false,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return raw, nil
}

// Has reports whether key was present in a decoded patch body.
func Has(raw map[string]interface{}, key string) bool {
	_, ok := raw[key]
	return ok
}
