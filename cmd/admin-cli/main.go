package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type action struct {
	Name        string
	Description string
}

type model struct {
	actions  []action
	selected int
	status   string
	metrics  string
	busy     bool
}

func initialModel() model {
	return model{
		actions: []action{
			{"seed", "Seed a demo catalog"},
			{"smoke", "Place one order against the seeded catalog"},
			{"bench", "Hammer order creation for 5s"},
		},
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.actions)-1 {
				m.selected++
			}
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Running..."
			return m, runActionCmd(m.actions[m.selected].Name)
		}
	case actionResult:
		m.busy = false
		m.status = msg.status
		m.metrics = msg.metrics
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "storefront-api admin CLI")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Actions:")
	for i, a := range m.actions {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s - %s\n", marker, a.Name, a.Description)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	if m.metrics != "" {
		fmt.Fprintf(b, "Metrics: %s\n", m.metrics)
	}
	fmt.Fprintln(b, "\nControls: up/down select, enter to run, q to quit")
	return b.String()
}

type actionResult struct {
	status  string
	metrics string
}

var seedProducts = []map[string]any{
	{"name": "Mechanical Keyboard", "description": "Hot-swappable, PBT caps", "price": "129.99", "category": "electronics", "stock": 40, "featured": true},
	{"name": "Trail Running Shoes", "description": "Cushioned, 8mm drop", "price": "89.50", "category": "sports", "stock": 25},
	{"name": "Espresso Cookbook", "description": "Dial in anything", "price": "24.00", "category": "books", "stock": 100},
}

func runActionCmd(name string) tea.Cmd {
	return func() tea.Msg {
		baseURL := getenv("API_BASE_URL", "http://localhost:8080")
		switch name {
		case "seed":
			ids, err := seedCatalog(baseURL)
			if err != nil {
				return actionResult{status: fmt.Sprintf("Seed failed: %v", err)}
			}
			return actionResult{status: fmt.Sprintf("Seeded %d products", len(ids)), metrics: strings.Join(ids, ", ")}
		case "bench":
			productID, err := firstProductID(baseURL)
			if err != nil {
				return actionResult{status: fmt.Sprintf("Bench setup failed: %v", err)}
			}
			return actionResult{status: "Benchmark finished", metrics: runBenchmark(baseURL, productID)}
		default:
			productID, err := firstProductID(baseURL)
			if err != nil {
				return actionResult{status: fmt.Sprintf("Smoke setup failed: %v", err)}
			}
			body, err := placeOrder(baseURL, productID, uuid.NewString())
			if err != nil {
				return actionResult{status: fmt.Sprintf("Order failed: %v", err)}
			}
			return actionResult{status: fmt.Sprintf("Order OK: %s", body)}
		}
	}
}

func seedCatalog(baseURL string) ([]string, error) {
	var ids []string
	for _, p := range seedProducts {
		body, err := doRequest(baseURL, http.MethodPost, "/api/products", p, "")
		if err != nil {
			return ids, err
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(body), &created); err == nil && created.ID != "" {
			ids = append(ids, created.ID)
		}
	}
	return ids, nil
}

func firstProductID(baseURL string) (string, error) {
	body, err := doRequest(baseURL, http.MethodGet, "/api/products?limit=1", nil, "")
	if err != nil {
		return "", err
	}
	var page struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		return "", err
	}
	if len(page.Products) == 0 {
		return "", fmt.Errorf("catalog is empty, run seed first")
	}
	return page.Products[0].ID, nil
}

func placeOrder(baseURL, productID, idemKey string) (string, error) {
	payload := map[string]any{
		"items":          []map[string]any{{"product_id": productID, "quantity": 1}},
		"payment_method": "cod",
		"shipping_address": map[string]any{
			"street": "1 Bench Lane", "city": "Pune", "state": "MH",
			"zip_code": "411001", "country": "India", "phone": "9999999999",
		},
	}
	return doRequest(baseURL, http.MethodPost, "/api/orders", payload, idemKey)
}

func doRequest(baseURL, method, path string, payload any, idemKey string) (string, error) {
	var reqBody io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		reqBody = bytes.NewReader(data)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reqBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(os.Getenv("ADMIN_TOKEN")); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func runBenchmark(baseURL, productID string) string {
	duration := 5 * time.Second
	vus := 5
	var mu sync.Mutex
	var total time.Duration
	var count int
	var errors int
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < vus; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
					start := time.Now()
					_, err := placeOrder(baseURL, productID, uuid.NewString())
					mu.Lock()
					if err != nil {
						errors++
					} else {
						count++
						total += time.Since(start)
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	avg := time.Duration(0)
	if count > 0 {
		avg = total / time.Duration(count)
	}
	throughput := float64(count) / duration.Seconds()
	return fmt.Sprintf("count=%d errors=%d avg=%s throughput=%.2f orders/s", count, errors, avg, throughput)
}

func main() {
	runCmd := flag.String("run", "", "run action: seed|smoke|bench")
	flag.Parse()

	if *runCmd != "" {
		res := runActionCmd(*runCmd)().(actionResult)
		fmt.Println(res.status)
		if res.metrics != "" {
			fmt.Println(res.metrics)
		}
		return
	}

	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
