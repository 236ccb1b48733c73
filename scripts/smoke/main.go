// Command smoke probes a running deptdesk-api instance and verifies that a
// set of endpoints answer with their expected status codes. Intended as a
// post-deploy check: exits non-zero when any critical target fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	WantStatus int    `json:"wantStatus"`
	Auth       bool   `json:"auth"`
	Critical   bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base        string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&token, "token", os.Getenv("SMOKE_TOKEN"), "Bearer token for authenticated targets")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		warnings int
	)

	for _, t := range targets {
		res := probe(client, base, token, t)
		if res.Error != nil || res.Status != t.WantStatus {
			if t.Critical {
				breaking++
			} else {
				warnings++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Failures: %d critical, %d warnings\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probe(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}

	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if tgt.Auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close() //nolint:errcheck

	res.Status = resp.StatusCode
	return res
}

func printReport(results []result) {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Status != res.Target.WantStatus:
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  status: %d (want %d) in %s\n", res.Status, res.Target.WantStatus, res.Duration)
	}
}
