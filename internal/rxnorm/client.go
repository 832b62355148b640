// Package rxnorm is a client for the NLM RxNorm API. A drug name is first
// resolved to its RxCUI identifier, then the interaction endpoint is queried
// for that identifier.
package rxnorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://rxnav.nlm.nih.gov/REST"

	// The interaction endpoint is slower and less reliable than the
	// identifier lookup, so it gets a tighter bound.
	rxcuiTimeout       = 10 * time.Second
	interactionTimeout = 8 * time.Second
)

// ErrDrugNotFound is returned when the name resolves to no RxCUI.
var ErrDrugNotFound = errors.New("drug not found in RxNorm")

// Interaction is one drug-interaction fragment from the interaction endpoint.
type Interaction struct {
	Description string
	Severity    string
}

// Client communicates with the RxNorm API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client targeting the public RxNorm API.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// rxcuiResponse mirrors the JSON returned by GET /rxcui.json.
type rxcuiResponse struct {
	IDGroup struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

// FindRxCUI resolves a drug name to its first RxCUI identifier.
// Returns ErrDrugNotFound when the identifier list is empty.
func (c *Client) FindRxCUI(ctx context.Context, drugName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, rxcuiTimeout)
	defer cancel()

	reqURL := c.baseURL + "/rxcui.json?name=" + url.QueryEscape(drugName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating rxcui request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rxcui lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rxcui lookup: unexpected status %d", resp.StatusCode)
	}

	var result rxcuiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding rxcui response: %w", err)
	}

	if len(result.IDGroup.RxNormID) == 0 {
		return "", ErrDrugNotFound
	}
	return result.IDGroup.RxNormID[0], nil
}

// interactionResponse mirrors the nested JSON returned by GET /interaction/interaction.json.
type interactionResponse struct {
	InteractionTypeGroup []struct {
		SourceConceptGroup []struct {
			ConceptInteraction []struct {
				Description string `json:"description"`
				Severity    string `json:"severity"`
			} `json:"conceptInteraction"`
		} `json:"sourceConceptGroup"`
	} `json:"interactionTypeGroup"`
}

// Interactions returns the flattened interaction fragments for an RxCUI.
// An empty result is not an error; the drug may simply have no recorded
// interactions.
func (c *Client) Interactions(ctx context.Context, rxcui string) ([]Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, interactionTimeout)
	defer cancel()

	reqURL := c.baseURL + "/interaction/interaction.json?rxcui=" + url.QueryEscape(rxcui)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating interaction request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("interaction lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interaction lookup: unexpected status %d", resp.StatusCode)
	}

	var result interactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding interaction response: %w", err)
	}

	var interactions []Interaction
	for _, group := range result.InteractionTypeGroup {
		for _, source := range group.SourceConceptGroup {
			for _, ci := range source.ConceptInteraction {
				interactions = append(interactions, Interaction{
					Description: ci.Description,
					Severity:    ci.Severity,
				})
			}
		}
	}
	return interactions, nil
}
