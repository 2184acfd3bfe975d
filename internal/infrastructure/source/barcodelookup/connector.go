// Package barcodelookup implements the BarcodeLookup.com connector.
package barcodelookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/source"
)

// Connector fetches product data from BarcodeLookup
type Connector struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewConnector creates a new BarcodeLookup connector.
// A missing API key is reported per call so the source can stay configured but disabled.
func NewConnector(config *Config, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		config:     config,
		httpClient: source.NewHTTPClient(config.Timeout),
		logger:     logger.With(zap.String("source", string(enrichment.SourceBarcodeLookup))),
	}
}

// Source returns the source identifier
func (c *Connector) Source() enrichment.SourceID {
	return enrichment.SourceBarcodeLookup
}

// Fetch looks up a barcode and normalizes the first product found
func (c *Connector) Fetch(ctx context.Context, barcode string, _ enrichment.FetchOptions) enrichment.Result {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return enrichment.Failed(enrichment.CauseEmptyBarcode, "Barcode is empty")
	}
	if err := c.config.Validate(); err != nil {
		return enrichment.Failed(enrichment.CauseNotConfigured, "BarcodeLookup API key not configured")
	}

	body, result, ok := c.request(ctx, barcode)
	if !ok {
		return result
	}

	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("Failed to parse BarcodeLookup response", zap.Error(err))
		return enrichment.Failed(enrichment.CauseInvalidResponse, "Invalid JSON response from BarcodeLookup API")
	}
	if len(resp.Products) == 0 {
		return enrichment.Failed(enrichment.CauseNotFound, "No product found in BarcodeLookup")
	}

	data := normalize(&resp.Products[0])
	c.logger.Debug("BarcodeLookup product found",
		zap.String("barcode", barcode),
		zap.String("name", data.Name),
		zap.String("brand", data.Brand),
	)
	return enrichment.Succeeded(data)
}

// request performs the HTTP call. ok is false when result carries a failure.
func (c *Connector) request(ctx context.Context, barcode string) (body []byte, result enrichment.Result, ok bool) {
	query := url.Values{}
	query.Set("barcode", barcode)
	query.Set("formatted", "y")
	query.Set("key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, enrichment.Failed(enrichment.CauseUnknown, fmt.Sprintf("BarcodeLookup request could not be built: %v", err)), false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", source.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cause := source.ClassifyTransportError(err)
		c.logger.Warn("BarcodeLookup request failed", zap.String("cause", string(cause)), zap.Error(err))
		if cause == enrichment.CauseTimeout {
			return nil, enrichment.Failed(cause, fmt.Sprintf("BarcodeLookup API timeout (>%s)", c.config.Timeout)), false
		}
		return nil, enrichment.Failed(cause, fmt.Sprintf("BarcodeLookup API connection error: %v", err)), false
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, enrichment.Failed(enrichment.CauseConnection, fmt.Sprintf("BarcodeLookup API connection error: %v", err)), false
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, enrichment.Result{}, true
	case http.StatusNotFound:
		return nil, enrichment.Failed(enrichment.CauseNotFound, "Product not found in BarcodeLookup database"), false
	case http.StatusUnauthorized:
		return nil, enrichment.Failed(enrichment.CauseUnauthorized, "Invalid BarcodeLookup API key"), false
	default:
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, source.Truncate(string(body), 200))
		c.logger.Warn("BarcodeLookup API error", zap.Int("status", resp.StatusCode))
		return nil, enrichment.Failed(enrichment.CauseHTTPStatus, msg), false
	}
}

// normalize maps a BarcodeLookup product onto the common shape
func normalize(p *product) *enrichment.ProductData {
	data := &enrichment.ProductData{
		Source:      enrichment.SourceBarcodeLookup,
		SourceID:    p.BarcodeNumber,
		Name:        firstNonEmpty(p.Title, p.ProductName),
		Brand:       firstNonEmpty(p.Brand, p.Manufacturer),
		MPN:         p.MPN,
		Description: p.Description,
		Category:    p.Category,
		Features:    p.Features,
	}
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			data.Images = append(data.Images, enrichment.ImageRef{URL: img, Type: "product"})
		}
	}
	if len(data.Images) > 0 {
		data.ImageURL = data.Images[0].URL
	}
	return data
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
