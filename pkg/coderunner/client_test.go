package coderunner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSplitsOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/execute", r.URL.Path)
		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "python", req.Language)
		assert.Equal(t, "3.10.0", req.Version)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "print(1)\nprint(2)", req.Files[0].Content)

		_, _ = w.Write([]byte(`{"language":"python","version":"3.10.0","run":{"stdout":"1\n2","stderr":"","output":"1\n2","code":0}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL+"/", time.Second).Execute(context.Background(), Request{
		Language: "python", Version: "3.10.0", Code: "print(1)\nprint(2)",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, res.Output)
	require.NotNil(t, res.ExitCode)
	assert.Equal(t, 0, *res.ExitCode)
}

func TestExecuteEngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"cobol-1.0 runtime is unknown"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Execute(context.Background(), Request{Language: "cobol", Version: "1.0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "runtime is unknown")
}
