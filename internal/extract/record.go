package extract

// LineItem is one purchased item parsed from a document line.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Record is the structured result of parsing one document's recognized
// text. All fields are optional except RawText; absent monetary fields are
// zero and absent strings empty.
type Record struct {
	InvoiceNumber     string `json:"invoiceNumber,omitempty"`
	TransactionID     string `json:"transactionId,omitempty"`
	AuthorizationCode string `json:"authorizationCode,omitempty"`

	Date    string `json:"date,omitempty"`    // MM/DD/YYYY
	Time    string `json:"time,omitempty"`    // H:MM AM/PM
	DueDate string `json:"dueDate,omitempty"` // MM/DD/YYYY

	Subtotal float64 `json:"subtotal,omitempty"`
	Tax      float64 `json:"tax,omitempty"`
	Total    float64 `json:"total,omitempty"`
	Currency string  `json:"currency,omitempty"`

	Vendor        string `json:"vendor,omitempty"`
	VendorAddress string `json:"vendorAddress,omitempty"`
	VendorPhone   string `json:"vendorPhone,omitempty"`
	VendorEmail   string `json:"vendorEmail,omitempty"`

	Items    []LineItem `json:"items,omitempty"`
	Overflow []string   `json:"overflow,omitempty"`

	RawText string `json:"rawText"`
}

// HasTotal reports whether a total amount was found.
func (r *Record) HasTotal() bool { return r.Total > 0 }

// HasVendor reports whether a vendor name was found.
func (r *Record) HasVendor() bool { return r.Vendor != "" }
