// Package apiclient talks to the hospital HTTP API on behalf of the reception workflow.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hospital-system/internal/reception"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUnauthorized is wrapped by every error caused by a missing or expired session.
var ErrUnauthorized = reception.ErrUnauthorized

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client is a session-holding API client. Cookies set by /login are kept in
// the client's jar.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

var _ reception.Backend = (*Client)(nil)

func New(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.httpClient.R().SetContext(ctx)
}

// mutating marks a request that must never be answered from a cache.
func (c *Client) mutating(ctx context.Context) *resty.Request {
	return c.request(ctx).SetHeaders(map[string]string{
		"Cache-Control": "no-cache, no-store, must-revalidate",
		"Pragma":        "no-cache",
		"Expires":       "0",
	})
}

// check turns a transport failure or a non-2xx answer into an error.
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Error("api request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: errorMessage(resp.StatusCode(), resp.Body())}
	c.logger.Warn("api error", zap.String("op", op), zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
	return apiErr
}

// errorMessage extracts the error or message field of a JSON body, else the
// trimmed text of the body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return "Erro " + strconv.Itoa(status)
}

func (c *Client) SearchPatients(ctx context.Context, query string) ([]reception.Patient, error) {
	resp, err := c.request(ctx).
		SetQueryParam("search", query).
		Get("/api/pacientes")
	if err := c.check(resp, err, "search patients"); err != nil {
		return nil, err
	}
	return decodePatientList(resp.Body())
}

// decodePatientList accepts {"pacientes": [...]} as well as a bare array.
func decodePatientList(body []byte) ([]reception.Patient, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []reception.Patient
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode patients: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Pacientes []reception.Patient `json:"pacientes"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return wrapped.Pacientes, nil
}

func (c *Client) GetPatient(ctx context.Context, id uint) (*reception.Patient, error) {
	var p reception.Patient
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		SetResult(&p).
		Get("/api/paciente/{id}")
	if err := c.check(resp, err, "get patient"); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, reception.ErrInvalidPatient
	}
	return &p, nil
}

func (c *Client) CreatePatient(ctx context.Context, p reception.Patient) (*reception.Patient, error) {
	var created reception.Patient
	resp, err := c.mutating(ctx).
		SetBody(p).
		SetResult(&created).
		Post("/api/pacientes")
	if err := c.check(resp, err, "create patient"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id uint, p reception.Patient) (*reception.Patient, error) {
	var updated reception.Patient
	resp, err := c.mutating(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		SetBody(p).
		SetResult(&updated).
		Put("/api/paciente/{id}")
	if err := c.check(resp, err, "update patient"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// LookupCEP reports an unknown CEP as an unsuccessful result, not an error.
func (c *Client) LookupCEP(ctx context.Context, cep string) (*reception.CEPResult, error) {
	var res reception.CEPResult
	resp, err := c.request(ctx).
		SetPathParam("cep", cep).
		SetResult(&res).
		Get("/api/consultar-cep/{cep}")
	if err == nil && (resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusBadRequest) {
		return &reception.CEPResult{Success: false, Error: errorMessage(resp.StatusCode(), resp.Body())}, nil
	}
	if err := c.check(resp, err, "lookup cep"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ValidateCPF(ctx context.Context, cpf string) (*reception.CPFResult, error) {
	var res reception.CPFResult
	resp, err := c.request(ctx).
		SetBody(map[string]string{"cpf": cpf}).
		SetResult(&res).
		Post("/api/validar-cpf")
	if err := c.check(resp, err, "validate cpf"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) NextRecordNumber(ctx context.Context) (string, error) {
	var res struct {
		Success bool   `json:"success"`
		Numero  string `json:"numero"`
	}
	resp, err := c.request(ctx).
		SetResult(&res).
		Get("/api/proximo-prontuario")
	if err := c.check(resp, err, "next record number"); err != nil {
		return "", err
	}
	if !res.Success || res.Numero == "" {
		return "", errors.New("resposta sem número de prontuário")
	}
	return res.Numero, nil
}

func (c *Client) Label(ctx context.Context, patientID uint) (*reception.LabelData, error) {
	var label reception.LabelData
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(patientID), 10)).
		SetResult(&label).
		Get("/api/imprimir-etiqueta/{id}")
	if err := c.check(resp, err, "label"); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) CreateMovement(ctx context.Context, in reception.MovementInput) (*reception.Movement, error) {
	var m reception.Movement
	resp, err := c.mutating(ctx).
		SetBody(in).
		SetResult(&m).
		Post("/api/movimentacoes")
	if err := c.check(resp, err, "create movement"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListMovements(ctx context.Context, patientID uint) ([]reception.Movement, error) {
	var list []reception.Movement
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(patientID), 10)).
		SetHeader("Cache-Control", "no-cache").
		SetResult(&list).
		Get("/api/movimentacoes/paciente/{id}")
	if err := c.check(resp, err, "list movements"); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) DeleteMovement(ctx context.Context, id uint) error {
	resp, err := c.mutating(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		Delete("/api/movimentacoes/{id}")
	return c.check(resp, err, "delete movement")
}

// Login opens a session. Rejected credentials come back as an *APIError
// carrying the server's message.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var res struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Tipo    string `json:"tipo"`
	}
	resp, err := c.mutating(ctx).
		SetFormData(map[string]string{"username": username, "password": password}).
		SetResult(&res).
		Post("/login")
	if err := c.check(resp, err, "login"); err != nil {
		return "", err
	}
	if res.Status != "success" {
		return "", &APIError{Status: resp.StatusCode(), Message: res.Message}
	}
	c.logger.Info("logged in", zap.String("username", username), zap.String("tipo", res.Tipo))
	return res.Tipo, nil
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.request(ctx).Get("/logout")
	return c.check(resp, err, "logout")
}
