package invoice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/invoicing/backend/internal/domain/document"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
)

// memoryInvoiceRepo is an in-memory invoice.Repository
type memoryInvoiceRepo struct {
	mu        sync.Mutex
	byID      map[string]invoice.Invoice
	nextID    int64
	saveErr   error
	findErr   error
	saves     atomic.Int32
	saveDelay time.Duration
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{byID: map[string]invoice.Invoice{}}
}

func (r *memoryInvoiceRepo) FindByID(_ context.Context, id string) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	inv, ok := r.byID[id]
	if !ok {
		return nil, invoice.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (r *memoryInvoiceRepo) FindByOrderID(_ context.Context, orderID string) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byID {
		if inv.OrderID == orderID {
			found := inv
			return &found, nil
		}
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (r *memoryInvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.OrderID == inv.OrderID {
			return shared.ErrAlreadyExists
		}
	}
	r.nextID++
	inv.DisplayID = r.nextID
	r.byID[inv.ID] = *inv
	return nil
}

func (r *memoryInvoiceRepo) SaveDocument(_ context.Context, id string, m *document.Model) error {
	if r.saveDelay > 0 {
		time.Sleep(r.saveDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	inv, ok := r.byID[id]
	if !ok {
		return invoice.ErrInvoiceNotFound
	}
	inv.ReplaceDocument(m)
	r.byID[id] = inv
	r.saves.Add(1)
	return nil
}

func (r *memoryInvoiceRepo) put(inv *invoice.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[inv.ID] = *inv
}

func (r *memoryInvoiceRepo) stored(id string) invoice.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// memoryConfigRepo is an in-memory invoice.ConfigRepository
type memoryConfigRepo struct {
	mu      sync.Mutex
	cfg     *invoice.Config
	readErr error
}

func (r *memoryConfigRepo) Current(context.Context) (*invoice.Config, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, false, r.readErr
	}
	if r.cfg == nil {
		return nil, false, nil
	}
	c := *r.cfg
	return &c, true, nil
}

func (r *memoryConfigRepo) Save(_ context.Context, cfg *invoice.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.cfg = &c
	return nil
}

// fakeRenderer returns fixed bytes and counts calls
type fakeRenderer struct {
	pdf   []byte
	err   error
	calls atomic.Int32
}

func (r *fakeRenderer) Render(_ context.Context, m *document.Model) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	if m == nil {
		return nil, errors.New("nil model")
	}
	return r.pdf, nil
}

// fakeLock records acquisitions and releases
type fakeLock struct {
	err      error
	acquired atomic.Int32
	released atomic.Int32
}

func (l *fakeLock) Acquire(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired.Add(1)
	return func() { l.released.Add(1) }, nil
}

// fakeArchive keeps stored PDFs in a map
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
	stores  atomic.Int32
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}}
}

func (a *fakeArchive) Store(_ context.Context, key string, pdf []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.stores.Add(1)
	a.objects[key] = pdf
	return nil
}

func (a *fakeArchive) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.objects[key]
	return ok, nil
}

func (a *fakeArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[key]; !ok {
		return "", time.Time{}, errors.New("not found")
	}
	return "https://archive.test/" + key, time.Now().Add(time.Hour), nil
}
