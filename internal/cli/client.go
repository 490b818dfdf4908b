package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Wire types mirror the server's JSON responses.

type dayView struct {
	Date         string      `json:"date"`
	StartCents   int64       `json:"startCents"`
	EndCents     int64       `json:"endCents"`
	IncomeCents  int64       `json:"incomeCents"`
	ExpenseCents int64       `json:"expenseCents"`
	Entries      []entryView `json:"entries"`
	Health       struct {
		Label string `json:"label"`
	} `json:"health"`
}

type entryView struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Type        string `json:"type"`
	Origin      string `json:"origin"`
}

type issueView struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type forecastView struct {
	Start        string      `json:"start"`
	Days         int         `json:"days"`
	OpeningCents int64       `json:"openingCents"`
	History      []dayView   `json:"history"`
	Window       []dayView   `json:"window"`
	Issues       []issueView `json:"issues"`
}

type invoiceView struct {
	CardID     string      `json:"cardId"`
	YearMonth  string      `json:"yearMonth"`
	DueDate    string      `json:"dueDate"`
	TotalCents int64       `json:"totalCents"`
	Status     string      `json:"status"`
	Entries    []entryView `json:"entries"`
}

type monthView struct {
	YearMonth    string  `json:"yearMonth"`
	IncomeCents  int64   `json:"incomeCents"`
	ExpenseCents int64   `json:"expenseCents"`
	EconomyCents int64   `json:"economyCents"`
	EndCents     int64   `json:"endCents"`
	SavingsRate  float64 `json:"savingsRate"`
}

type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) get(path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s for %s", resp.Status, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// windowQuery builds the shared start/days query parameters.
func windowQuery() url.Values {
	q := url.Values{}
	if flagStart != "" {
		q.Set("start", flagStart)
	}
	if flagDays > 0 {
		q.Set("days", strconv.Itoa(flagDays))
	}
	return q
}
