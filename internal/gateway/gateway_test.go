package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
	"github.com/sitelangsirat/deswita-backend/internal/modules/media"
)

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetAllProducts(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "API Error: Internal Server Error")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestRequests(t *testing.T) {
	type seen struct {
		method, path, auth, body string
	}
	var (
		mu  sync.Mutex
		got []seen
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, seen{r.Method, r.URL.EscapedPath(), r.Header.Get("Authorization"), string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/events":
			io.WriteString(w, `[{"id":"e1","date":"1 Okt","title":"Opening"}]`)
		case r.Method == http.MethodDelete:
			io.WriteString(w, `{"success":true}`)
		default:
			w.Write(body)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL+"/", WithToken("tok"))

	events, err := c.GetAllEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []content.Event{{ID: "e1", Date: "1 Okt", Title: "Opening"}}, events)

	p := content.Product{ID: "p9", Name: "Sabun", Price: 25000, Category: content.CategoryCare}
	stored, err := c.UpdateProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, stored)

	require.NoError(t, c.DeleteArticle(ctx, "a 1"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, seen{http.MethodGet, "/api/events", "Bearer tok", ""}, got[0])
	assert.Equal(t, http.MethodPut, got[1].method)
	assert.Equal(t, "/api/products", got[1].path)
	assert.JSONEq(t, `{"id":"p9","name":"Sabun","price":25000,"description":"","category":"Care"}`, got[1].body)
	assert.Equal(t, "/api/articles/a%201", got[2].path)
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	products, err := New(srv.URL).GetAllProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestLoginKeepsToken(t *testing.T) {
	var lastAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		if r.URL.Path == "/api/login" {
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)
			if creds["password"] != "rahasia" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"token":"abc"}`)
			return
		}
		io.WriteString(w, `{"products":1,"articles":2,"events":3}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL)

	_, err := c.Login(ctx, "admin", "salah")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	token, err := c.Login(ctx, "admin", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[content.Collection]int{content.Products: 1, content.Articles: 2, content.Events: 3}, stats)
	assert.Equal(t, "Bearer abc", lastAuth.Load())
}

func TestUpload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		f, hdr, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		assert.Equal(t, "leaf.png", hdr.Filename)
		io.WriteString(w, `{"url":"/uploads/1-2.png"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	url, err := c.Upload(ctx, "leaf.png", bytes.NewReader(make([]byte, media.MaxUploadBytes)))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1-2.png", url)

	_, err = c.Upload(ctx, "big.png", bytes.NewReader(make([]byte, media.MaxUploadBytes+1)))
	assert.ErrorIs(t, err, media.ErrTooLarge)
	assert.Equal(t, int32(1), hits.Load())
}
