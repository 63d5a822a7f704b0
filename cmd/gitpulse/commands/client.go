package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/gitpulse/am"
)

var apiClient = &http.Client{Timeout: 10 * time.Second}

// apiBaseURL resolves the daemon address from the --port flag or the
// configured server port
func apiBaseURL(cmd *cobra.Command) string {
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		return fmt.Sprintf("http://localhost:%d", port)
	}

	port := am.DefaultServerPort
	if cfg, err := am.Load(); err == nil {
		port = cfg.Server.EffectivePort()
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// getJSON fetches an API endpoint and decodes the response into v
func getJSON(cmd *cobra.Command, path string, v interface{}) error {
	url := apiBaseURL(cmd) + path
	resp, err := apiClient.Get(url)
	if err != nil {
		return fmt.Errorf("is the daemon running? failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// postControl submits a pause/resume/trigger action to the daemon
func postControl(cmd *cobra.Command, action string) error {
	body, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		return err
	}

	url := apiBaseURL(cmd) + "/api/control"
	resp, err := apiClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("is the daemon running? failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s rejected: %s", action, apiErr.Error)
		}
		return fmt.Errorf("%s rejected with status %s", action, resp.Status)
	}
	return nil
}

func addPortFlag(cmd *cobra.Command) {
	cmd.Flags().Int("port", 0, "Daemon API port (default: from config)")
}
