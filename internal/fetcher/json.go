package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// DecodeJSONObject decodes a single JSON object from a reader.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}

// Object is one decoded JSON object. Key is set when the document stored
// objects under map keys instead of in an array.
type Object struct {
	Key    string
	Fields map[string]any
}

// wrapperKeys hold the object list in enveloped exports.
var wrapperKeys = []string{"data", "items", "vehicles", "rows"}

// DecodeObjects accepts the document shapes vendors ship: a bare array, an
// envelope such as {"data": [...]}, or a map of id → object. Map entries come
// back sorted by key. Non-object elements are skipped.
func DecodeObjects(r io.Reader) ([]Object, error) {
	var doc any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "json: decode document")
	}

	switch t := doc.(type) {
	case []any:
		return objectsFromArray(t), nil
	case map[string]any:
		for _, k := range wrapperKeys {
			if arr, ok := t[k].([]any); ok {
				return objectsFromArray(arr), nil
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Object, 0, len(keys))
		for _, k := range keys {
			if m, ok := t[k].(map[string]any); ok {
				out = append(out, Object{Key: k, Fields: m})
			}
		}
		return out, nil
	default:
		return nil, eris.Errorf("json: expected array or object, got %T", doc)
	}
}

func objectsFromArray(arr []any) []Object {
	out := make([]Object, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Object{Fields: m})
		}
	}
	return out
}
