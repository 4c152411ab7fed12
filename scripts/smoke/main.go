// Command smoke probes a running planner-api instance and reports
// per-endpoint status and latency. Intended for post-deploy checks.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type probe struct {
	name     string
	method   string
	path     string
	want     int
	needAuth bool
}

func main() {
	var (
		base    string
		token   string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes := []probe{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/ready", want: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
	}
	if token != "" {
		for _, id := range flag.Args() {
			probes = append(probes, probe{
				name:     "docked " + id,
				method:   http.MethodGet,
				path:     "/api/v1/plan-groups/" + id + "/docked",
				want:     http.StatusOK,
				needAuth: true,
			})
		}
	}

	client := &http.Client{Timeout: timeout}
	failed := 0
	for _, p := range probes {
		status, elapsed, err := run(client, base, token, p)
		if err != nil {
			fmt.Printf("FAIL %-20s %v\n", p.name, err)
			failed++
			continue
		}
		mark := "ok"
		if status != p.want {
			mark = fmt.Sprintf("status %d, want %d", status, p.want)
			failed++
		}
		fmt.Printf("%-4s %-20s %6dms  %s\n", verdict(status == p.want), p.name, elapsed.Milliseconds(), mark)
	}

	if failed > 0 {
		fmt.Printf("%d probe(s) failed\n", failed)
		os.Exit(1)
	}
}

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func run(client *http.Client, base, token string, p probe) (int, time.Duration, error) {
	req, err := http.NewRequest(p.method, base+p.path, nil)
	if err != nil {
		return 0, 0, err
	}
	if p.needAuth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, elapsed, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, elapsed, nil
}
