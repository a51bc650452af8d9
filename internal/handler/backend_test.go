package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

const testPageSize = 2

type fakeAccount struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

// fakeAPI emulates the accounts REST backend.
type fakeAPI struct {
	mu sync.Mutex

	accounts  map[string]*fakeAccount
	transfers []string
	imports   int
	searches  []string
	gets      map[string]int

	importErr   string
	transferErr string
	deleteFails bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{
		accounts: make(map[string]*fakeAccount),
		gets:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/accounts/{$}", api.list)
	mux.HandleFunc("GET /api/accounts/{id}", api.get)
	mux.HandleFunc("POST /api/accounts/transfer/", api.transfer)
	mux.HandleFunc("POST /api/accounts/import_csv/", api.importCSV)
	mux.HandleFunc("DELETE /api/accounts/delete_all/", api.deleteAll)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) add(id, name, balance string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[id] = &fakeAccount{ID: id, Name: name, Balance: decimal.RequireFromString(balance)}
}

// update mutates the fake's state under its lock.
func (a *fakeAPI) update(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

func (a *fakeAPI) accountCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.accounts)
}

func (a *fakeAPI) importCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.imports
}

func (a *fakeAPI) searchQueries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.searches...)
}

func (a *fakeAPI) getCount(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gets[id]
}

func (a *fakeAPI) searchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.searches)
}

func (a *fakeAPI) transferBodies() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.transfers...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wire(acc *fakeAccount) map[string]string {
	return map[string]string{"id": acc.ID, "name": acc.Name, "balance": acc.Balance.StringFixed(2)}
}

func (a *fakeAPI) sortedLocked(by func(x, y *fakeAccount) bool) []*fakeAccount {
	out := make([]*fakeAccount, 0, len(a.accounts))
	for _, acc := range a.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return by(out[i], out[j]) })
	return out
}

func (a *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if q := r.URL.Query().Get("search"); q != "" {
		a.searches = append(a.searches, q)
		results := []map[string]string{}
		for _, acc := range a.sortedLocked(func(x, y *fakeAccount) bool { return x.Name < y.Name }) {
			if strings.Contains(strings.ToLower(acc.Name), strings.ToLower(q)) {
				results = append(results, map[string]string{"id": acc.ID, "name": acc.Name})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	all := a.sortedLocked(func(x, y *fakeAccount) bool { return x.ID < y.ID })
	total := (len(all) + testPageSize - 1) / testPageSize
	if total == 0 {
		total = 1
	}

	results := []map[string]string{}
	for i := (page - 1) * testPageSize; i < len(all) && i < page*testPageSize; i++ {
		results = append(results, wire(all[i]))
	}

	links := map[string]any{"next": nil, "previous": nil}
	if page < total {
		links["next"] = fmt.Sprintf("http://backend/api/accounts/?page=%d", page+1)
	}
	if page > 1 {
		links["previous"] = fmt.Sprintf("http://backend/api/accounts/?page=%d", page-1)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":      results,
		"total_pages":  total,
		"current_page": page,
		"links":        links,
	})
}

func (a *fakeAPI) get(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := r.PathValue("id")
	a.gets[id]++
	acc, ok := a.accounts[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Account not found"})
		return
	}
	writeJSON(w, http.StatusOK, wire(acc))
}

func (a *fakeAPI) transfer(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.transfers = append(a.transfers, string(body))

	if a.transferErr != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": a.transferErr})
		return
	}

	var req struct {
		From   string      `json:"from_account"`
		To     string      `json:"to_account"`
		Amount json.Number `json:"amount"`
	}
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	amount := decimal.RequireFromString(req.Amount.String())
	if from, ok := a.accounts[req.From]; ok {
		from.Balance = from.Balance.Sub(amount)
	}
	if to, ok := a.accounts[req.To]; ok {
		to.Balance = to.Balance.Add(amount)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transfer successful"})
}

func (a *fakeAPI) importCSV(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.imports++
	importErr := a.importErr
	a.mu.Unlock()

	if importErr != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": importErr})
		return
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	imported := 0
	for i, row := range rows {
		if i == 0 || len(row) != 3 {
			continue
		}
		a.add(row[0], row[1], row[2])
		imported++
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  fmt.Sprintf("Successfully imported %d accounts", imported),
		"accounts": []any{},
	})
}

func (a *fakeAPI) deleteAll(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.deleteFails {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database locked"})
		return
	}
	a.accounts = make(map[string]*fakeAccount)
	w.WriteHeader(http.StatusNoContent)
}
