// Package core defines the pipeline data model and collaborator interfaces for motopipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"errors"
	"time"
)

// MinPlausiblePrice is the lowest price a scraped record may carry.
// Anything below it is a parsing artefact (model codes, monthly rates, etc.).
const MinPlausiblePrice = 10000

// ErrNotFound is returned by stores when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// FetchResult holds the raw payload and response metadata from a fetch.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// RenderOptions configures a single page render.
type RenderOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves a raw payload from a URL. Implementations make a single
// attempt and never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*FetchResult, error)
}

// PageRenderer returns the HTML of a page after its scripts have run.
// It is an external collaborator; its own retries are out of scope.
type PageRenderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
}

// Renderer converts a record set (and run stats) into an output format.
type Renderer interface {
	Render(records []Record, stats *Stats) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json", ".pdf").
	Extension() string
}

// StoredRecord is a Record as persisted by a Store.
type StoredRecord struct {
	ID      int64
	BrandID int64
	Record
	UpdatedAt time.Time
}

// RecordUpdate is a partial record. Nil fields are left unchanged.
type RecordUpdate struct {
	Price          *float64
	PreviousPrice  *float64
	Year           *int
	Category       *Category
	EngineCapacity *int
	Power          *float64
	Torque         *float64
	Weight         *int
	ImageURL       *string
	Specifications map[string]any
}

// Empty reports whether the update would change nothing.
func (u RecordUpdate) Empty() bool {
	return u.Price == nil && u.PreviousPrice == nil && u.Year == nil &&
		u.Category == nil && u.EngineCapacity == nil && u.Power == nil &&
		u.Torque == nil && u.Weight == nil && u.ImageURL == nil &&
		u.Specifications == nil
}

// Apply returns a copy of r with the update's non-nil fields set.
func (u RecordUpdate) Apply(r Record) Record {
	if u.Price != nil {
		r.Price = *u.Price
	}
	if u.PreviousPrice != nil {
		r.PreviousPrice = Ptr(*u.PreviousPrice)
	}
	if u.Year != nil {
		r.Year = *u.Year
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.EngineCapacity != nil {
		r.EngineCapacity = Ptr(*u.EngineCapacity)
	}
	if u.Power != nil {
		r.Power = Ptr(*u.Power)
	}
	if u.Torque != nil {
		r.Torque = Ptr(*u.Torque)
	}
	if u.Weight != nil {
		r.Weight = Ptr(*u.Weight)
	}
	if u.ImageURL != nil {
		r.ImageURL = *u.ImageURL
	}
	if u.Specifications != nil {
		r.Specifications = u.Specifications
	}
	return r
}

// Store persists canonical records and their price history.
// FindByIdentity returns ErrNotFound when no record matches.
type Store interface {
	FindByIdentity(ctx context.Context, brand, name string) (*StoredRecord, error)
	Insert(ctx context.Context, brandID int64, rec Record) (int64, error)
	Update(ctx context.Context, id int64, upd RecordUpdate) error
	InsertPriceHistory(ctx context.Context, entry PriceHistoryEntry) error
	EnsureBrand(ctx context.Context, name string) (int64, error)
}

// Transactor is implemented by stores that can run a unit of work atomically.
// fn receives a Store bound to the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Lister is implemented by stores that can return their full record set.
type Lister interface {
	All(ctx context.Context) ([]StoredRecord, error)
}
