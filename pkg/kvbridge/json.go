package kvbridge

import (
	"context"
	"fmt"
	"log"

	jsoniter "github.com/json-iterator/go"
)

// SetJSONValue serializes value to JSON and stores it as a plain string
// through the standard set path. Returns "OK" in immediate mode and
// "QUEUED" in deferred mode.
func (f *Facade) SetJSONValue(ctx context.Context, key string, value interface{}) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}

	data, err := jsoniter.Marshal(value)
	if err != nil {
		log.Printf("[FACADE] JSON marshal for key %s failed: %v", key, err)
		return "", fmt.Errorf("failed to encode value for key %s: %w", key, err)
	}
	return f.SetValue(ctx, key, string(data))
}

// GetJSONValue reads the raw string value and deserializes it into target.
// An absent key and an undecodable payload both leave target at its zero
// value with a nil error; the two outcomes are logged distinctly. Callers
// that need to tell them apart should use GetJSONValueStrict. Mode guard
// failures still propagate.
func (f *Facade) GetJSONValue(ctx context.Context, key string, target interface{}) error {
	if err := f.guard(); err != nil {
		return err
	}

	found, err := f.GetJSONValueStrict(ctx, key, target)
	if err != nil {
		log.Printf("[FACADE] JSON read for key %s failed: %v", key, err)
		return nil
	}
	if !found {
		log.Printf("[FACADE] JSON key not found: %s", key)
	}
	return nil
}

// GetJSONValueStrict reads and deserializes key into target, keeping the
// outcomes distinct: found reports whether the key existed, and a decode
// failure surfaces as a StoreCommandError wrapping the cause.
func (f *Facade) GetJSONValueStrict(ctx context.Context, key string, target interface{}) (bool, error) {
	value, err := f.GetValue(ctx, key)
	if err != nil {
		return false, err
	}
	if !value.Present {
		return false, nil
	}
	if err := jsoniter.UnmarshalFromString(value.String, target); err != nil {
		return true, storeErr("GET", err)
	}
	return true, nil
}
