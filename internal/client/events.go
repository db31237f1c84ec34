package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"simdash/internal/models"
)

func orderQuery(newestFirst bool) url.Values {
	q := url.Values{}
	if newestFirst {
		q.Set("order", "desc")
	} else {
		q.Set("order", "asc")
	}
	return q
}

func (c *Client) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	var out struct {
		Events []models.SimulationEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/simulation-events", orderQuery(newestFirst), nil, &out); err != nil {
		return nil, fmt.Errorf("list simulation events: %w", err)
	}
	return out.Events, nil
}

func (c *Client) Checkups(ctx context.Context, newestFirst bool) ([]models.CheckupEvent, error) {
	var out struct {
		Events []models.CheckupEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/checkup-events", orderQuery(newestFirst), nil, &out); err != nil {
		return nil, fmt.Errorf("list checkups: %w", err)
	}
	return out.Events, nil
}

// InsertCheckup stores a reading directly, bypassing the validated procedure.
func (c *Client) InsertCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	in := struct {
		Temperature  int    `json:"temperature"`
		Status       string `json:"status,omitempty"`
		SimulationID string `json:"simulation_id"`
	}{e.Temperature, e.Status, e.SimulationID}

	var out models.CheckupEvent
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/checkup-events", nil, in, &out); err != nil {
		return models.CheckupEvent{}, fmt.Errorf("insert checkup: %w", err)
	}
	return out, nil
}

// ExportCheckups writes the xlsx history workbook to w.
func (c *Client) ExportCheckups(ctx context.Context, w io.Writer) (int, error) {
	status, raw, err := c.send(ctx, http.MethodGet, apiPrefix+"/checkup-events/export", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("export checkups: %w", err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("export checkups: %w", apiError(status, raw))
	}
	return w.Write(raw)
}
