package command

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abustosp/app-presupuesto/internal/cli/connection"
	"github.com/abustosp/app-presupuesto/internal/cli/output"
)

const budgetsPath = "/api/budgets"

// budget mirrors the server's full snapshot.
type budget struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Table implements output.Tabler as a field/value listing.
func (b *budget) Table(wide bool) *output.Table {
	state := compactJSON(b.State)
	if !wide {
		state = truncate(state, 60)
	}
	return &output.Table{
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"id", b.ID},
			{"name", b.Name},
			{"timestamp", strconv.FormatInt(b.Timestamp, 10)},
			{"state", state},
			{"created_at", formatTime(b.CreatedAt)},
			{"updated_at", formatTime(b.UpdatedAt)},
		},
	}
}

// summary mirrors one list entry.
type summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type summaries []summary

// Table implements output.Tabler.
func (s summaries) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"ID", "NAME", "TIMESTAMP", "UPDATED"}}
	if wide {
		t.Headers = append(t.Headers, "CREATED")
	}
	for _, item := range s {
		id := item.ID
		if !wide {
			id = truncateID(id)
		}
		row := []string{id, item.Name, strconv.FormatInt(item.Timestamp, 10), formatTime(item.UpdatedAt)}
		if wide {
			row = append(row, formatTime(item.CreatedAt))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// BudgetCommand returns the budget subcommand group.
func BudgetCommand() *cli.Command {
	return &cli.Command{
		Name:    "budget",
		Aliases: []string{"b"},
		Usage:   "Manage budget snapshots",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List snapshots, newest timestamp first",
				Action:  budgetList,
			},
			{
				Name:      "get",
				Usage:     "Show a snapshot with its state",
				ArgsUsage: "ID",
				Action:    budgetGet,
			},
			{
				Name:   "create",
				Usage:  "Save a new snapshot",
				Flags:  snapshotFlags(),
				Action: budgetCreate,
			},
			{
				Name:      "update",
				Usage:     "Replace a snapshot's name, timestamp and state",
				ArgsUsage: "ID",
				Flags:     snapshotFlags(),
				Action:    budgetUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a snapshot permanently",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: budgetDelete,
			},
		},
	}
}

func snapshotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Aliases:  []string{"n"},
			Usage:    "Snapshot name",
			Required: true,
		},
		&cli.Int64Flag{
			Name:    "timestamp",
			Aliases: []string{"t"},
			Usage:   "Client timestamp (default: now, Unix milliseconds)",
		},
		&cli.StringFlag{
			Name:  "state",
			Usage: "State document as JSON",
		},
		&cli.StringFlag{
			Name:  "state-file",
			Usage: "Read the state document from a file (- for stdin)",
		},
	}
}

func budgetList(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	resp, err := client.Get(ctx, budgetsPath)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result summaries
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	if result == nil {
		result = summaries{}
	}

	if flags.Output == output.FormatTable && len(result) == 0 {
		fmt.Fprintln(writer(c), "No budgets found.")
		return nil
	}
	return render(c, flags, result)
}

func budgetGet(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	resp, err := client.Get(ctx, budgetPath(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result budget
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, flags, &result)
}

func budgetCreate(c *cli.Context) error {
	body, err := snapshotBody(c)
	if err != nil {
		return err
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	resp, err := client.Post(ctx, budgetsPath, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result budget
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, flags, &result)
}

func budgetUpdate(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	body, err := snapshotBody(c)
	if err != nil {
		return err
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	resp, err := client.Put(ctx, budgetPath(id), body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result budget
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, flags, &result)
}

func budgetDelete(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		fmt.Fprintf(writer(c), "Are you sure you want to delete budget '%s'? [y/N]: ", id)
		answer, _ := bufio.NewReader(reader(c)).ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(writer(c), "Cancelled.")
			return nil
		}
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c, flags.Timeout)
	defer cancel()

	resp, err := client.Delete(ctx, budgetPath(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Fprintf(writer(c), "Budget %s deleted.\n", id)
	return nil
}

// snapshotBody builds the create/update body. The state is sent as given
// so numbers keep their exact text.
func snapshotBody(c *cli.Context) (json.RawMessage, error) {
	state, err := readState(c)
	if err != nil {
		return nil, err
	}

	timestamp := c.Int64("timestamp")
	if !c.IsSet("timestamp") {
		timestamp = time.Now().UnixMilli()
	}

	name, err := json.Marshal(c.String("name"))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	buf.Write(name)
	buf.WriteString(`,"timestamp":`)
	buf.WriteString(strconv.FormatInt(timestamp, 10))
	buf.WriteString(`,"state":`)
	buf.Write(state)
	buf.WriteString(`}`)
	return buf.Bytes(), nil
}

func readState(c *cli.Context) (json.RawMessage, error) {
	inline, file := c.String("state"), c.String("state-file")
	switch {
	case c.IsSet("state") && file != "":
		return nil, fmt.Errorf("use either --state or --state-file, not both")
	case c.IsSet("state"):
		return validState([]byte(inline), "--state")
	case file == "":
		return nil, fmt.Errorf("state required (--state or --state-file)")
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(reader(c))
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return validState(data, file)
}

func validState(data []byte, source string) (json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not a valid JSON document", source)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requireID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", fmt.Errorf("budget ID required")
	}
	return id, nil
}

func budgetPath(id string) string {
	return budgetsPath + "/" + url.PathEscape(id)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// truncateID truncates long IDs for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:13] + "..."
}
