package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoRequestShape(t *testing.T) {
	var (
		gotPath string
		gotReq  map[string]any
		gotUser string
		gotPass string
		gotOK   bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, gotOK = r.BasicAuth()
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		w.Write([]byte(`{"result":2542000,"error":null,"id":"btcgw"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "mywallet", "root:hellohello", time.Second)
	resp, err := c.Do(context.Background(), "getblockcount")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "/wallet/mywallet", gotPath)
	require.True(t, gotOK)
	require.Equal(t, "root", gotUser)
	require.Equal(t, "hellohello", gotPass)
	require.Equal(t, "1.0", gotReq["jsonrpc"])
	require.Equal(t, "getblockcount", gotReq["method"])
	require.Equal(t, []any{}, gotReq["params"])

	var height int64
	require.NoError(t, resp.Decode(&height))
	require.Equal(t, int64(2542000), height)
}

func TestDoWithoutAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		require.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"result":null,"error":null,"id":"btcgw"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "", "", 0)
	require.Equal(t, DefaultTimeout, c.Timeout)
	require.NoError(t, c.Call(context.Background(), nil, "ping"))
}

func TestServerErrorBodyIsKept(t *testing.T) {
	const body = `{"result":null,"error":{"code":-18,"message":"Requested wallet does not exist or is not loaded"},"id":"btcgw"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New(srv.URL, "missing", "", time.Second)
	resp, err := c.Do(context.Background(), "getwalletinfo")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, body, string(resp.Body))

	err = resp.Decode(nil)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -18, rpcErr.Code)
}

func TestDecodeNonJSONBody(t *testing.T) {
	resp := &Response{StatusCode: http.StatusUnauthorized, Body: nil}
	err := resp.Decode(nil)
	require.EqualError(t, err, `status code: 401, response: ""`)
}

func TestCallEncodesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getblock", req.Method)
		require.Len(t, req.Params, 2)
		require.JSONEq(t, `"00ab"`, string(req.Params[0]))
		require.JSONEq(t, `0`, string(req.Params[1]))
		w.Write([]byte(`{"result":"deadbeef","error":null,"id":"btcgw"}`))
	}))
	defer srv.Close()

	var hex string
	c := New(srv.URL, "", "", time.Second)
	require.NoError(t, c.Call(context.Background(), &hex, "getblock", "00ab", 0))
	require.Equal(t, "deadbeef", hex)
}

func TestDoRejectsEmptyMethod(t *testing.T) {
	_, err := New("", "", "", 0).Do(context.Background(), "")
	require.Error(t, err)
}

func TestDoHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, "", "", time.Second).Do(ctx, "getblockcount")
	require.ErrorIs(t, err, context.Canceled)
}
