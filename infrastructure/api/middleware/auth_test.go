package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, key string) int {
	req := httptest.NewRequest(method, "/", nil)
	if key != "" {
		req.Header.Set("X-API-KEY", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestWriteProtect_SafeMethodsPassWithoutKey(t *testing.T) {
	handler := WriteProtectAuth([]string{"secret"})(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.Equal(t, http.StatusOK, serve(handler, method, ""), method)
	}
}

func TestWriteProtect_MutatingMethods(t *testing.T) {
	handler := WriteProtectAuth([]string{"secret", "other"})(okHandler())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.Equal(t, http.StatusUnauthorized, serve(handler, method, ""), "%s without key", method)
		assert.Equal(t, http.StatusUnauthorized, serve(handler, method, "wrong"), "%s with wrong key", method)
		assert.Equal(t, http.StatusOK, serve(handler, method, "secret"), "%s with key", method)
		assert.Equal(t, http.StatusOK, serve(handler, method, "other"), "%s with second key", method)
	}
}

func TestWriteProtect_Disabled(t *testing.T) {
	for _, keys := range [][]string{nil, {""}} {
		config := NewAuthConfigWithKeys(keys)
		assert.False(t, config.Enabled())
		assert.Equal(t, http.StatusOK, serve(WriteProtect(config)(okHandler()), http.MethodPost, ""))
	}
}
