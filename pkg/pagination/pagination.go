package pagination

import "fmt"

const (
	// DefaultSize is the standard page size when size is not provided.
	DefaultSize = 25
	// MaxSize caps how many rows any list query can request.
	MaxSize = 100
)

// Params holds offset pagination inputs from controllers or services.
// From is the index of the first row to return, Size the row count.
type Params struct {
	From int
	Size int
}

// Normalize applies defaults and caps. A zero-valued Params is the first
// default-sized page.
func (p Params) Normalize() Params {
	if p.From < 0 {
		p.From = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Validate rejects negative inputs before normalization hides them.
func (p Params) Validate() error {
	if p.From < 0 {
		return fmt.Errorf("from must not be negative")
	}
	if p.Size < 0 {
		return fmt.Errorf("size must not be negative")
	}
	return nil
}

// Offset returns the SQL offset for the normalized params.
func (p Params) Offset() int {
	return p.Normalize().From
}

// Limit returns the SQL limit for the normalized params.
func (p Params) Limit() int {
	return p.Normalize().Size
}
