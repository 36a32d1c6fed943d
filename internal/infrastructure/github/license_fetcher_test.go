package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/pkg/errors"
)

func newTestFetcher(t *testing.T, handler http.Handler) *LicenseFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewLicenseFetcher(&config.GitHubConfig{})
	f.npmBaseURL = srv.URL + "/npm"
	f.pypiBaseURL = srv.URL + "/pypi"

	base, err := url.Parse(srv.URL + "/gh/")
	require.NoError(t, err)
	f.gh.BaseURL = base
	return f
}

func TestFetch_GitHubLicense(t *testing.T) {
	licenseText := "MIT License\n\nCopyright (c) 2024 Acme"
	mux := http.NewServeMux()
	mux.HandleFunc("/gh/repos/acme/tool/license", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content":  base64.StdEncoding.EncodeToString([]byte(licenseText)),
			"encoding": "base64",
		})
	})

	f := newTestFetcher(t, mux)
	got, err := f.Fetch(context.Background(), "acme/tool")
	require.NoError(t, err)
	assert.Equal(t, licenseText, got)
}

func TestFetch_NPMFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/npm/leftpad", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"dist-tags": map[string]string{"latest": "1.3.0"},
			"versions": map[string]any{
				"1.3.0": map[string]any{"license": "WTFPL"},
			},
		})
	})

	f := newTestFetcher(t, mux)
	got, err := f.Fetch(context.Background(), "leftpad")
	require.NoError(t, err)
	assert.Equal(t, "License: WTFPL", got)
}

func TestFetch_PyPIFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/requests/json", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"info": map[string]any{
				"license":     "",
				"classifiers": []string{"License :: OSI Approved :: Apache Software License", "Programming Language :: Python"},
			},
		})
	})

	f := newTestFetcher(t, mux)
	got, err := f.Fetch(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, "License :: OSI Approved :: Apache Software License", got)
}

func TestFetch_NotFoundAnywhere(t *testing.T) {
	f := newTestFetcher(t, http.NotFoundHandler())

	_, err := f.Fetch(context.Background(), "nosuchpkg")
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeLicenseNotFound, appErr.Code)
	assert.Equal(t, "ソフトウェア名 'nosuchpkg' からライセンス情報を取得できませんでした。", appErr.Message)
}

func TestFetch_EmptyName(t *testing.T) {
	f := NewLicenseFetcher(nil)

	_, err := f.Fetch(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.AsAppError(err).Code)
}
