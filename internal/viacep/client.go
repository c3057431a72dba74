package viacep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNotFound is returned when ViaCEP has no record for the CEP.
var ErrNotFound = errors.New("cep not found")

// Address is the subset of the ViaCEP payload the reception form uses.
type Address struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        any    `json:"erro,omitempty"`
}

// Client queries the ViaCEP postal code service.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a client against baseURL (normally https://viacep.com.br).
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// Lookup fetches the address of an 8-digit CEP.
func (c *Client) Lookup(ctx context.Context, cep string) (*Address, error) {
	var addr Address
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("cep", cep).
		SetResult(&addr).
		Get("/ws/{cep}/json/")
	if err != nil {
		c.logger.Error("ViaCEP request failed", zap.String("cep", cep), zap.Error(err))
		return nil, fmt.Errorf("viacep request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("viacep status %d", resp.StatusCode())
	}
	if addr.Erro != nil && addr.Erro != false {
		return nil, ErrNotFound
	}
	return &addr, nil
}
