package domain

import "fmt"

// Instrument describes a tradable symbol with its display metadata.
type Instrument struct {
	Symbol string
	Name   string
	Cap    string // market-cap bucket (Mega, Large, Mid, Small)
	Region string
}

// DisplayName combines symbol and company name for presentation.
func (i Instrument) DisplayName() string {
	return fmt.Sprintf("%s - %s", i.Symbol, i.Name)
}

// Segment combines region and cap bucket for presentation.
func (i Instrument) Segment() string {
	return fmt.Sprintf("%s / %s", i.Region, i.Cap)
}
