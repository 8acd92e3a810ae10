package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fischer-ua", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("testlandia\r\n\nmax_barry\n  the_east_pacific  \n"))
	}))
	defer srv.Close()

	names, err := NewActiveNationsClient(srv.URL, WithUserAgent("fischer-ua")).ActiveNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"testlandia", "max_barry", "the_east_pacific"}, names)
}

func TestActiveNamesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewActiveNationsClient(srv.URL, WithRetrier(nil)).ActiveNames(context.Background())
	assert.Error(t, err)
}
