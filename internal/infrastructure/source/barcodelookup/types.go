package barcodelookup

// productsResponse is the top-level lookup payload
type productsResponse struct {
	Products []product `json:"products"`
}

// product is the subset of a BarcodeLookup product that is used
type product struct {
	BarcodeNumber string   `json:"barcode_number"`
	Title         string   `json:"title"`
	ProductName   string   `json:"product_name"`
	Brand         string   `json:"brand"`
	Manufacturer  string   `json:"manufacturer"`
	MPN           string   `json:"mpn"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Images        []string `json:"images"`
	Features      []string `json:"features"`
}
