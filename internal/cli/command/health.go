package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/abustosp/app-presupuesto/internal/cli/connection"
	"github.com/abustosp/app-presupuesto/internal/cli/output"
)

// HealthCommand returns the health check command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server liveness and storage readiness",
		Action: health,
	}
}

type healthReport struct {
	Server  string `json:"server"`
	Live    string `json:"live"`
	Ready   string `json:"ready"`
	Problem string `json:"problem,omitempty"`
}

func health(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	report := healthReport{Server: client.BaseURL()}

	var result struct {
		Status string `json:"status"`
	}
	resp, err := client.Get(ctx, "/api/health")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	report.Live = result.Status

	resp, err = client.Get(ctx, "/api/ready")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	err = connection.ParseResponse(resp, &result)
	var apiErr *connection.APIError
	switch {
	case err == nil:
		report.Ready = result.Status
	case errors.As(err, &apiErr):
		report.Ready = "not ready"
		report.Problem = apiErr.Error()
	default:
		return err
	}

	if err := render(c, flags, report); err != nil {
		return err
	}
	if report.Problem != "" {
		return errors.New("server is not ready")
	}
	return nil
}

// Table implements output.Tabler.
func (h healthReport) Table(bool) *output.Table {
	t := &output.Table{Headers: []string{"SERVER", "LIVE", "READY"}}
	t.AddRow(h.Server, h.Live, h.Ready)
	if h.Problem != "" {
		t.Headers = append(t.Headers, "PROBLEM")
		t.Rows[0] = append(t.Rows[0], h.Problem)
	}
	return t
}
