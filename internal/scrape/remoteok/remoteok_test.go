package remoteok

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSkipsLegalNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"legal":"API terms of service..."},
			{"id":101,"slug":"crm-manager-acme","position":"CRM Manager","company":"Acme",
			 "location":"Worldwide","tags":["crm","marketing"],"date":"2026-08-20T09:00:00+00:00",
			 "url":"https://remoteok.com/remote-jobs/101","salary":"$90k"},
			{"id":102,"position":"Sales Lead","company":"Beta","location":"","tags":[]}
		]`)
	}))
	defer srv.Close()

	old := baseURL
	baseURL = srv.URL
	defer func() { baseURL = old }()

	s := New(nil)
	jobs, err := s.Search(context.Background(), nil, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "remoteok_101", jobs[0].JobID)
	assert.Equal(t, "CRM Manager", jobs[0].Title)
	assert.Equal(t, "$90k", jobs[0].Salary)
	assert.Equal(t, "Remote", jobs[0].JobType)
	require.NotNil(t, jobs[0].PostedAt)

	// empty location defaults to Remote
	assert.Equal(t, "remoteok_102", jobs[1].JobID)
	assert.Equal(t, "Remote", jobs[1].Location)
	// missing url synthesized from the id
	assert.Equal(t, "https://remoteok.com/remote-jobs/102", jobs[1].URL)
	assert.Nil(t, jobs[1].PostedAt)
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	old := baseURL
	baseURL = srv.URL
	defer func() { baseURL = old }()

	s := New(nil)
	_, err := s.Search(context.Background(), nil, "")
	assert.Error(t, err)
}
