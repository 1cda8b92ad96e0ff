package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"datagpt-client/internal/dto"
)

// SignIn exchanges credentials for an identity, bearer token and subscription
// snapshot. The response is flat, not envelope-wrapped. A failed sign-in is
// always an error; the client never fabricates a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (dto.SignInResponse, error) {
	payload := dto.SignInRequest{Email: email, Password: password}

	resp, err := c.do(ctx, c.httpClient, c.backendURL+"/auth/signin", http.MethodPost, "", payload)
	if err != nil {
		return dto.SignInResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dto.SignInResponse{}, &RemoteError{Status: resp.StatusCode, Message: err.Error()}
	}

	var out dto.SignInResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return dto.SignInResponse{}, &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = resp.Status
		}
		return dto.SignInResponse{}, &RemoteError{Status: resp.StatusCode, Message: msg}
	}
	if out.User == nil || out.Token == "" {
		return dto.SignInResponse{}, &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	return out, nil
}

// CheckSubscription fetches the current entitlement window for the bearer.
func (c *Client) CheckSubscription(ctx context.Context, token string) (dto.SubscriptionStatusResponse, error) {
	resp, err := c.do(ctx, c.httpClient, c.backendURL+"/auth/subscription", http.MethodGet, token, nil)
	if err != nil {
		return dto.SubscriptionStatusResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dto.SubscriptionStatusResponse{}, &RemoteError{Status: resp.StatusCode, Message: resp.Status}
	}

	var out dto.SubscriptionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dto.SubscriptionStatusResponse{}, &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	return out, nil
}
