// Package gotrue implementa o subconjunto da API REST de autenticação do serviço
// hospedado (compatível com GoTrue) usado pelo provedor hospedado.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client encapsula chamadas ao endpoint /auth/v1 do serviço hospedado.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// Config descreve credenciais essenciais para o cliente.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// New cria um novo cliente com a chave pública do projeto.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("gotrue: url obrigatória")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gotrue: api key obrigatória")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/") + "/auth/v1",
	}, nil
}

// User é a identidade devolvida pelo serviço.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Session é o par de tokens emitido pelo serviço.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SignInWithPassword troca email e senha por uma sessão.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/token?grant_type=password", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession troca o refresh token por um novo par de tokens.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/token?grant_type=refresh_token", map[string]any{
		"refresh_token": refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp cadastra um usuário. Quando o serviço exige confirmação por email a
// resposta traz apenas o usuário e Session fica sem tokens.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/signup", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" && session.User.ID == "" {
		if err := json.Unmarshal(raw, &session.User); err != nil {
			return nil, err
		}
	}
	return &session, nil
}

// SignOut revoga a sessão associada ao access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/logout", nil, accessToken)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any, bearer string) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, err
		}
	}

	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// APIError é a resposta de erro do serviço.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error_code"`
	Err         string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
}

func (a *APIError) Error() string {
	for _, candidate := range []string{a.Msg, a.Description, a.Message, a.Err, a.Code} {
		if strings.TrimSpace(candidate) != "" {
			return fmt.Sprintf("gotrue: status %d: %s", a.Status, candidate)
		}
	}
	return fmt.Sprintf("gotrue: status %d", a.Status)
}

// Contains procura o trecho, sem diferenciar maiúsculas, em todos os campos de mensagem.
func (a *APIError) Contains(fragment string) bool {
	fragment = strings.ToLower(fragment)
	for _, candidate := range []string{a.Msg, a.Description, a.Message, a.Err, a.Code} {
		if strings.Contains(strings.ToLower(candidate), fragment) {
			return true
		}
	}
	return false
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}
