package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"simdash"
)

const (
	procInsertSimulationEvent = "insert_simulation_event"
	procInsertCheckupEvent    = "insert_checkup_event"
	procActiveSimulationID    = "get_active_simulation_id"

	fnSendCriticalAlert = "send-critical-alert"
)

func (c *Client) rpc(ctx context.Context, name string, in, out any) error {
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/rpc/"+name, nil, in, out); err != nil {
		return fmt.Errorf("rpc %s: %w", name, err)
	}
	return nil
}

func (c *Client) InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error) {
	in := map[string]string{"event_type": eventType, "user_id": userID}
	var out simdash.MutationResult
	err := c.rpc(ctx, procInsertSimulationEvent, in, &out)
	return out, err
}

func (c *Client) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error) {
	in := map[string]any{"temperature": temperature, "simulation_id": simulationID}
	var out simdash.CheckupResult
	err := c.rpc(ctx, procInsertCheckupEvent, in, &out)
	return out, err
}

func (c *Client) ActiveSimulationID(ctx context.Context) (string, error) {
	var out simdash.ActiveSimulation
	if err := c.rpc(ctx, procActiveSimulationID, struct{}{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// SendCriticalAlert invokes the alert function. The server answers a failed
// delivery with a 500 carrying the result, which is returned without error.
func (c *Client) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) (simdash.AlertResult, error) {
	status, raw, err := c.send(ctx, http.MethodPost, apiPrefix+"/functions/"+fnSendCriticalAlert, nil, req)
	if err != nil {
		return simdash.AlertResult{}, fmt.Errorf("invoke %s: %w", fnSendCriticalAlert, err)
	}
	if carriesAlertResult(status) {
		var out simdash.AlertResult
		if jerr := json.Unmarshal(raw, &out); jerr == nil && (out.Success || out.Error != "") {
			return out, nil
		}
	}
	if status < 200 || status > 299 {
		return simdash.AlertResult{}, fmt.Errorf("invoke %s: %w", fnSendCriticalAlert, apiError(status, raw))
	}
	return simdash.AlertResult{}, fmt.Errorf("invoke %s: unexpected response %q", fnSendCriticalAlert, raw)
}

// carriesAlertResult reports whether a send-critical-alert response body is a
// result rather than a plain error.
func carriesAlertResult(status int) bool {
	return (status >= 200 && status <= 299) || status == http.StatusInternalServerError
}
