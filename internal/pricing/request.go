package pricing

import "github.com/angelmondragon/cogsdesk-backend/pkg/enums"

// Request is either a LineModeRequest or a ComboModeRequest. An order is priced
// as lines or as one combo, never both in the same call.
type Request interface {
	Mode() enums.QuoteMode
	PriceBookSelector() Selector
	isRequest()
}

// LineModeRequest prices every line at its resolved unit cost plus one
// order-level shipping charge.
type LineModeRequest struct {
	Selector Selector
	Lines    []OrderLine
}

func (LineModeRequest) Mode() enums.QuoteMode         { return enums.QuoteModeLine }
func (r LineModeRequest) PriceBookSelector() Selector { return r.Selector }
func (LineModeRequest) isRequest()                    {}

// ComboModeRequest prices a single combo. With an empty ComboID the combo is
// matched from Lines; with a ComboID, Lines are optional but must trigger the
// combo when present.
type ComboModeRequest struct {
	Selector Selector
	ComboID  string
	Lines    []OrderLine
}

func (ComboModeRequest) Mode() enums.QuoteMode         { return enums.QuoteModeCombo }
func (r ComboModeRequest) PriceBookSelector() Selector { return r.Selector }
func (ComboModeRequest) isRequest()                    {}

// WithSelector returns a copy of req that targets sel.
func WithSelector(req Request, sel Selector) Request {
	switch r := req.(type) {
	case LineModeRequest:
		r.Selector = sel
		return r
	case ComboModeRequest:
		r.Selector = sel
		return r
	default:
		return req
	}
}
