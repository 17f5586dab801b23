package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes procurectl against a fake API that answers each "METHOD path"
// with the mapped body.
func run(t *testing.T, routes map[string]string, args ...string) (string, []byte, error) {
	t.Helper()
	return runWithInput(t, routes, "", args...)
}

func runWithInput(t *testing.T, routes map[string]string, stdin string, args ...string) (string, []byte, error) {
	t.Helper()
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastBody, _ = io.ReadAll(r.Body)
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"no route"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), lastBody, err
}

func TestVendorsList(t *testing.T) {
	out, _, err := run(t, map[string]string{
		"GET /api/vendors": `{"success":true,"data":{"vendors":[{"id":1,"name":"Acme","email":"sales@acme.test"}],"total":1}}`,
	}, "vendors", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "sales@acme.test")
}

func TestVendorsAdd(t *testing.T) {
	out, body, err := run(t, map[string]string{
		"POST /api/vendors": `{"success":true,"data":{"vendor":{"id":9,"name":"Acme","email":"sales@acme.test"}}}`,
	}, "vendors", "add", "--name", "Acme", "--email", "sales@acme.test", "--phone", "5550101000")
	require.NoError(t, err)

	assert.Equal(t, "Created vendor 9 (sales@acme.test)\n", out)
	var sent map[string]string
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "Acme", sent["name"])
	assert.Equal(t, "5550101000", sent["phone"])
}

func TestRFPsCreate_FromStdin(t *testing.T) {
	out, body, err := runWithInput(t, map[string]string{
		"POST /api/rfps/create-from-natural-language": `{"success":true,"data":{"rfp":{"id":2,"title":"Procurement of Laptops","status":"draft","budget":50000,"requirements":[{"item":"laptops","quantity":20}]}}}`,
	}, "We need 20 laptops\n", "rfps", "create", "-")
	require.NoError(t, err)

	assert.JSONEq(t, `{"naturalLanguage":"We need 20 laptops"}`, string(body))
	assert.Contains(t, out, "Procurement of Laptops")
	assert.Contains(t, out, "$50,000")
	assert.Contains(t, out, "laptops (qty 20)")
}

func TestRFPsCreate_Preview(t *testing.T) {
	out, _, err := run(t, map[string]string{
		"POST /api/rfps/parse": `{"success":true,"data":{"rfp":{"title":"Procurement of Chairs","requirements":[]}}}`,
	}, "rfps", "create", "--preview", "50", "chairs")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Procurement of Chairs"`)
}

func TestRFPsSend(t *testing.T) {
	out, body, err := run(t, map[string]string{
		"POST /api/rfps/send": `{"success":true,"data":{"rfp_id":3,"sent":1,"failed":1,"results":[` +
			`{"vendor_id":1,"success":true,"email_sent":true,"message_id":"<a@b>"},` +
			`{"vendor_id":2,"success":false,"error":"Vendor not found"}]},"message":"RFP sent to 1 of 2 vendor(s); see results for failures"}`,
	}, "rfps", "send", "3", "1,2")
	require.NoError(t, err)

	assert.JSONEq(t, `{"rfpId":3,"vendorIds":[1,2]}`, string(body))
	assert.Contains(t, out, "Vendor not found")
	assert.Contains(t, out, "RFP sent to 1 of 2 vendor(s)")
}

func TestRFPsSend_InvalidID(t *testing.T) {
	_, _, err := run(t, nil, "rfps", "send", "3", "abc")
	assert.ErrorContains(t, err, `invalid id "abc"`)
}

func TestProposalsCompare_JSON(t *testing.T) {
	out, _, err := run(t, map[string]string{
		"GET /api/proposals/compare/4": `{"success":true,"data":{"comparison":{"best_proposal_id":8,"summary":"Compared 2 proposal(s) on price.","key_differences":[],"mode":"heuristic"},"proposals":[],"scores":[]}}`,
	}, "--json", "proposals", "compare", "4")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Contains(t, report, "comparison")
}

func TestProposalsCheck_APIError(t *testing.T) {
	_, _, err := run(t, nil, "proposals", "check")
	assert.ErrorContains(t, err, "no route")
}

func TestSeed_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "seed.db"))
	t.Setenv("LLM_PROVIDER", "heuristic")

	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetArgs([]string{"seed", "--config", filepath.Join(dir, "missing.yaml")})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Seeded 3 vendor(s), skipped 0 existing\n", out.String())

	out.Reset()
	cmd = rootCmd(&out)
	cmd.SetArgs([]string{"seed", "--config", filepath.Join(dir, "missing.yaml")})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Seeded 0 vendor(s), skipped 3 existing\n", out.String())
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "2, 3", ""})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
}
