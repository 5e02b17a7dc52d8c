package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// getJSON fetches serverURL+path from a running server and decodes the JSON body into out.
func getJSON(serverURL, path string, out interface{}) error {
	return doJSON(http.MethodGet, serverURL, path, out)
}

// postJSON posts an empty body to serverURL+path and decodes the JSON body into out.
func postJSON(serverURL, path string, out interface{}) error {
	return doJSON(http.MethodPost, serverURL, path, out)
}

func doJSON(method, serverURL, path string, out interface{}) error {
	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
