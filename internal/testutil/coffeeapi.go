package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// CoffeeAPI is an in-memory Coffee Tracker API served over HTTP. Mount it
// with httptest.NewServer.
type CoffeeAPI struct {
	// Password is required by every write.
	Password string

	// FailStatus, if non-zero, is returned by every request with a detail body.
	FailStatus int

	mu       sync.Mutex
	bags     []*fakeBag
	uses     []fakeUse
	nextKey  int
	requests []string
}

type fakeBag struct {
	Key    string  `json:"key"`
	Brand  string  `json:"brand"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Start  string  `json:"start"`
	Active bool    `json:"active"`
	Finish *string `json:"finish"`
}

type fakeUse struct {
	Key      string `json:"key"`
	BagID    string `json:"bag_id"`
	DateTime string `json:"datetime"`
}

// NewCoffeeAPI creates an empty API guarded by password.
func NewCoffeeAPI(password string) *CoffeeAPI {
	return &CoffeeAPI{Password: password}
}

// AddBag adds an active bag. start is YYYY-MM-DD.
func (a *CoffeeAPI) AddBag(key, brand, name string, weight float64, start string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bags = append(a.bags, &fakeBag{Key: key, Brand: brand, Name: name, Weight: weight, Start: start, Active: true})
}

// AddUse logs a use. when is YYYY-MM-DDTHH:MM:SS.
func (a *CoffeeAPI) AddUse(key, bagID, when string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uses = append(a.uses, fakeUse{Key: key, BagID: bagID, DateTime: when})
}

// Requests returns "METHOD /path" for every request served so far.
func (a *CoffeeAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.requests))
	copy(out, a.requests)
	return out
}

// UseCount returns the number of logged uses of a bag.
func (a *CoffeeAPI) UseCount(bagID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, u := range a.uses {
		if u.BagID == bagID {
			n++
		}
	}
	return n
}

// Finished returns the finish day of a deactivated bag.
func (a *CoffeeAPI) Finished(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range a.bags {
		if b.Key == key && b.Finish != nil {
			return *b.Finish, true
		}
	}
	return "", false
}

func (a *CoffeeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path)

	if a.FailStatus != 0 {
		writeDetail(w, a.FailStatus, "Injected failure.")
		return
	}

	q := r.URL.Query()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "active_bags/":
		a.activeBags(w)
	case r.Method == http.MethodGet && path == "uses/":
		a.listUses(w, q.Get("since"), q.Get("n_last"))
	case r.Method == http.MethodGet && path == "number_of_uses/":
		writeJSON(w, http.StatusOK, len(a.usesSince(q.Get("since"))))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "new_use/"):
		if a.authorized(w, q.Get("password")) {
			a.newUse(w, strings.TrimPrefix(path, "new_use/"), q.Get("when"))
		}
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "deactivate/"):
		if a.authorized(w, q.Get("password")) {
			a.deactivate(w, strings.TrimPrefix(path, "deactivate/"), q.Get("when"))
		}
	case r.Method == http.MethodPut && path == "new_bag/":
		if a.authorized(w, q.Get("password")) {
			a.newBag(w, r)
		}
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (a *CoffeeAPI) authorized(w http.ResponseWriter, password string) bool {
	if password != a.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect password.")
		return false
	}
	return true
}

func (a *CoffeeAPI) bag(key string) *fakeBag {
	for _, b := range a.bags {
		if b.Key == key {
			return b
		}
	}
	return nil
}

func (a *CoffeeAPI) activeBags(w http.ResponseWriter) {
	var entries []keyed
	for _, b := range a.bags {
		if b.Active {
			entries = append(entries, keyed{b.Key, b})
		}
	}
	writeObject(w, entries)
}

func (a *CoffeeAPI) usesSince(since string) []fakeUse {
	var out []fakeUse
	for _, u := range a.uses {
		// Same layout on both sides, so strings order like times.
		if since == "" || u.DateTime >= since {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime < out[j].DateTime })
	return out
}

func (a *CoffeeAPI) listUses(w http.ResponseWriter, since, nLast string) {
	uses := a.usesSince(since)
	if nLast != "" {
		n, err := strconv.Atoi(nLast)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "n_last must be an integer")
			return
		}
		if n < len(uses) {
			uses = uses[len(uses)-n:]
		}
	}
	entries := make([]keyed, 0, len(uses))
	for _, u := range uses {
		entries = append(entries, keyed{u.Key, u})
	}
	writeObject(w, entries)
}

func (a *CoffeeAPI) newUse(w http.ResponseWriter, bagID, when string) {
	if a.bag(bagID) == nil {
		writeDetail(w, http.StatusNotFound, "Bag not found.")
		return
	}
	if when == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "when is required")
		return
	}
	a.nextKey++
	u := fakeUse{Key: fmt.Sprintf("use%d", a.nextKey), BagID: bagID, DateTime: when}
	a.uses = append(a.uses, u)
	writeJSON(w, http.StatusOK, u)
}

func (a *CoffeeAPI) deactivate(w http.ResponseWriter, key, when string) {
	b := a.bag(key)
	if b == nil {
		writeDetail(w, http.StatusNotFound, "Bag not found.")
		return
	}
	b.Active = false
	b.Finish = &when
	writeJSON(w, http.StatusOK, b)
}

func (a *CoffeeAPI) newBag(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Brand  string  `json:"brand"`
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
		Start  string  `json:"start"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a.nextKey++
	b := &fakeBag{
		Key:    fmt.Sprintf("bag%d", a.nextKey),
		Brand:  in.Brand,
		Name:   in.Name,
		Weight: in.Weight,
		Start:  in.Start,
		Active: true,
	}
	a.bags = append(a.bags, b)
	writeJSON(w, http.StatusOK, b)
}

type keyed struct {
	key   string
	value any
}

// writeObject encodes entries as one JSON object, keeping their order.
func writeObject(w http.ResponseWriter, entries []keyed) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(e.key)
		v, _ := json.Marshal(e.value)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
