package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"id":1,"name":"alpha"},{"id":2,"name":"beta"}]`

	ch, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(input))

	var records []testRecord
	for rec := range ch {
		records = append(records, rec)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, records, 2)
	assert.Equal(t, testRecord{ID: 1, Name: "alpha"}, records[0])
	assert.Equal(t, testRecord{ID: 2, Name: "beta"}, records[1])
}

func TestDecodeJSONArray_NotArray(t *testing.T) {
	ch, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(`{"id":1}`))
	for range ch {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONObject(t *testing.T) {
	obj, err := DecodeJSONObject[testRecord](strings.NewReader(`{"id":7,"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, 7, obj.ID)

	_, err = DecodeJSONObject[testRecord](strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestDecodeObjects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLen  int
		wantKeys []string
	}{
		{"array", `[{"a":1},{"a":2},3]`, 2, []string{"", ""}},
		{"envelope", `{"data":[{"a":1}]}`, 1, []string{""}},
		{"items envelope", `{"items":[{"a":1},{"a":2}]}`, 2, []string{"", ""}},
		{"id map", `{"v2":{"a":1},"v1":{"a":2},"meta":"x"}`, 2, []string{"v1", "v2"}},
		{"empty", ``, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := DecodeObjects(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, objs, tt.wantLen)
			for i, k := range tt.wantKeys {
				assert.Equal(t, k, objs[i].Key)
			}
		})
	}
}

func TestDecodeObjects_Scalar(t *testing.T) {
	_, err := DecodeObjects(strings.NewReader(`42`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected array or object")
}
