package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tgbridge/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const statusTimeout = 10 * time.Second

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running bridge",
	Long:  "Queries a running bridge for its connection state and the account it is logged in as.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()

		report, err := fetchStatus(ctx, http.DefaultClient, bridgeURL(statusAddr))
		if err != nil {
			return fmt.Errorf("query bridge: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(report))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	defaultAddr := fmt.Sprintf("127.0.0.1:%d", config.DefaultPort)
	statusCmd.Flags().StringVar(&statusAddr, "addr", defaultAddr, "address of the running bridge")
}

type statusReport struct {
	URL       string
	Connected bool
	// Account is empty when /me failed; AccountErr then holds the detail.
	Account    string
	AccountErr string
}

type healthPayload struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

type mePayload struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}

type detailPayload struct {
	Detail string `json:"detail"`
}

func bridgeURL(addr string) string {
	value := strings.TrimRight(strings.TrimSpace(addr), "/")
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}

	return "http://" + value
}

func fetchStatus(ctx context.Context, client *http.Client, baseURL string) (statusReport, error) {
	report := statusReport{URL: baseURL}

	var health healthPayload
	if err := getJSON(ctx, client, baseURL+"/health", &health); err != nil {
		return report, err
	}
	report.Connected = health.Connected

	var me mePayload
	if err := getJSON(ctx, client, baseURL+"/me", &me); err != nil {
		report.AccountErr = err.Error()
		return report, nil
	}
	report.Account = describeAccount(me)

	return report, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var detail detailPayload
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Detail != "" {
			return fmt.Errorf("%s: %s", resp.Status, detail.Detail)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}

func describeAccount(me mePayload) string {
	name := strings.TrimSpace(deref(me.FirstName) + " " + deref(me.LastName))
	if name == "" {
		name = "(no name)"
	}
	if username := deref(me.Username); username != "" {
		name += " @" + username
	}

	return fmt.Sprintf("%s [%d]", name, me.ID)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}

func renderStatus(report statusReport) string {
	label := lipgloss.NewStyle().Bold(true).Width(11)
	good := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	connection := good.Render("connected")
	if !report.Connected {
		connection = bad.Render("disconnected")
	}

	account := report.Account
	if account == "" {
		account = bad.Render(report.AccountErr)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		label.Render("Bridge")+report.URL,
		label.Render("Telegram")+connection,
		label.Render("Account")+account,
	)
}
