// Package icecat implements the Icecat Open/Full catalog connector.
package icecat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/source"
)

// Connector fetches product data from Icecat
type Connector struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewConnector creates a new Icecat connector
func NewConnector(config *Config, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		config:     config,
		httpClient: source.NewHTTPClient(config.Timeout),
		logger:     logger.With(zap.String("source", string(enrichment.SourceIcecat))),
	}
}

// Source returns the source identifier
func (c *Connector) Source() enrichment.SourceID {
	return enrichment.SourceIcecat
}

// Fetch looks up a GTIN and normalizes the product sheet
func (c *Connector) Fetch(ctx context.Context, barcode string, opts enrichment.FetchOptions) enrichment.Result {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return enrichment.Failed(enrichment.CauseEmptyBarcode, "EAN code is empty")
	}
	if err := c.config.Validate(); err != nil {
		return enrichment.Failed(enrichment.CauseNotConfigured, "Icecat credentials not configured")
	}

	body, result, ok := c.request(ctx, barcode, opts)
	if !ok {
		return result
	}

	if !gjson.ValidBytes(body) {
		return enrichment.Failed(enrichment.CauseInvalidResponse, "Invalid JSON response from Icecat API")
	}
	doc := gjson.ParseBytes(body)
	if !doc.Get("data").IsObject() {
		return enrichment.Failed(enrichment.CauseInvalidResponse, "Failed to parse Icecat data")
	}

	data := parseProduct(doc.Get("data"))
	c.logger.Debug("Icecat product found",
		zap.String("barcode", barcode),
		zap.String("icecat_id", data.SourceID),
		zap.Int("specifications", len(data.Specifications)),
	)
	return enrichment.Succeeded(data)
}

// request performs the HTTP call. ok is false when result carries a failure.
func (c *Connector) request(ctx context.Context, barcode string, opts enrichment.FetchOptions) (body []byte, result enrichment.Result, ok bool) {
	query := url.Values{}
	query.Set("lang", LanguageCode(opts.Language))
	query.Set("shopname", c.config.Username)
	query.Set("GTIN", barcode)
	query.Set("content", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, enrichment.Failed(enrichment.CauseUnknown, fmt.Sprintf("Unexpected error: %v", err)), false
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", source.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cause := source.ClassifyTransportError(err)
		c.logger.Warn("Icecat request failed", zap.String("cause", string(cause)), zap.Error(err))
		if cause == enrichment.CauseTimeout {
			return nil, enrichment.Failed(cause, "Icecat API request timed out"), false
		}
		return nil, enrichment.Failed(cause, "Failed to connect to Icecat API"), false
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, enrichment.Failed(enrichment.CauseConnection, "Failed to connect to Icecat API"), false
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Icecat API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", source.Truncate(string(body), 500)),
		)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, enrichment.Result{}, true
	case http.StatusNotFound:
		message := gjson.GetBytes(body, "Message").String()
		if strings.Contains(strings.ToLower(message), "brand restrictions") {
			return nil, enrichment.Failed(enrichment.CauseBrandRestricted, brandRestrictionMessage(opts.CatalogType)), false
		}
		return nil, enrichment.Failed(enrichment.CauseNotFound, "Product not found in Icecat database"), false
	case http.StatusUnauthorized:
		return nil, enrichment.Failed(enrichment.CauseUnauthorized, "Authentication failed. Please check your Icecat credentials."), false
	default:
		detail := gjson.GetBytes(body, "message").String()
		if detail == "" {
			detail = source.Truncate(string(body), 200)
		}
		return nil, enrichment.Failed(enrichment.CauseHTTPStatus, fmt.Sprintf("Icecat API error: %d - %s", resp.StatusCode, detail)), false
	}
}

func brandRestrictionMessage(catalogType string) string {
	if catalogType == enrichment.CatalogTypeFull {
		return "Product has brand restrictions. This brand is not included in your Full Icecat subscription."
	}
	return "Product has brand restrictions. This product requires Full Icecat subscription."
}

// parseProduct maps the Icecat data object onto the common shape.
// Missing paths yield empty values.
func parseProduct(data gjson.Result) *enrichment.ProductData {
	info := data.Get("GeneralInfo")
	title := strings.TrimSpace(info.Get("Title").String())
	brand := strings.TrimSpace(info.Get("Brand").String())

	out := &enrichment.ProductData{
		Source:      enrichment.SourceIcecat,
		SourceID:    info.Get("IcecatId").String(),
		Name:        productName(brand, title),
		Brand:       brand,
		Category:    categoryName(info.Get("Category")),
		Quality:     info.Get("Quality").String(),
		Description: firstNonEmpty(info.Get("Description.LongDesc").String(), info.Get("Description.ShortDesc").String()),
	}

	data.Get("Gallery").ForEach(func(_, pic gjson.Result) bool {
		u := strings.TrimSpace(pic.Get("Pic").String())
		if u == "" {
			return true
		}
		imgType := pic.Get("Type").String()
		if imgType == "" {
			imgType = "product"
		}
		out.Images = append(out.Images, enrichment.ImageRef{
			URL:  u,
			Size: pic.Get("Size").Int(),
			Type: imgType,
		})
		return true
	})
	if len(out.Images) > 0 {
		out.ImageURL = out.Images[0].URL
	}

	data.Get("FeaturesGroups").ForEach(func(_, group gjson.Result) bool {
		groupName := group.Get("FeatureGroup.Name.Value").String()
		group.Get("Features").ForEach(func(_, feature gjson.Result) bool {
			name := feature.Get("Feature.Name.Value").String()
			value := feature.Get("Value").String()
			if name == "" || value == "" {
				return true
			}
			out.Specifications = append(out.Specifications, catalog.Specification{
				Group: groupName,
				Name:  name,
				Value: value,
				Unit:  feature.Get("Feature.Measure.Signs._").String(),
			})
			return true
		})
		return true
	})

	return out
}

// productName prefixes the brand unless the title already carries it
func productName(brand, title string) string {
	if title == "" {
		return ""
	}
	if brand == "" || strings.HasPrefix(strings.ToLower(title), strings.ToLower(brand)) {
		return title
	}
	return brand + " " + title
}

// categoryName reads either {"Name":{"Value":...}}, {"Name":"..."} or a plain string
func categoryName(category gjson.Result) string {
	switch {
	case category.IsObject():
		name := category.Get("Name")
		if name.IsObject() {
			return name.Get("Value").String()
		}
		return name.String()
	case category.Type == gjson.String:
		return category.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
