package testutil

import (
	"context"
	"sync"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
)

// MockCollector is a mock implementation of resource.Collector
type MockCollector struct {
	KindValue resource.Kind
	Records   map[string][]resource.Record // keyed by region
	Errors    map[string]error             // keyed by region
	Calls     []string                     // regions in call order
}

func NewMockCollector(kind resource.Kind) *MockCollector {
	return &MockCollector{
		KindValue: kind,
		Records:   make(map[string][]resource.Record),
		Errors:    make(map[string]error),
	}
}

func (m *MockCollector) Kind() resource.Kind { return m.KindValue }

func (m *MockCollector) List(ctx context.Context, region string) ([]resource.Record, error) {
	m.Calls = append(m.Calls, region)
	if err := m.Errors[region]; err != nil {
		return nil, err
	}
	return m.Records[region], nil
}

// MockGlobalCollector is a mock implementation of resource.GlobalCollector
type MockGlobalCollector struct {
	KindValue resource.Kind
	Records   []resource.Record
	Err       error
	Calls     int
}

func NewMockGlobalCollector(kind resource.Kind) *MockGlobalCollector {
	return &MockGlobalCollector{KindValue: kind}
}

func (m *MockGlobalCollector) Kind() resource.Kind { return m.KindValue }

func (m *MockGlobalCollector) List(ctx context.Context) ([]resource.Record, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// MockBillingSource is a mock implementation of billing.Source
type MockBillingSource struct {
	BalanceValue float64
	BalanceErr   error
	BillValue    billing.Bill
	BillErr      error
}

func (m *MockBillingSource) Balance(ctx context.Context) (float64, error) {
	if m.BalanceErr != nil {
		return 0, m.BalanceErr
	}
	return m.BalanceValue, nil
}

func (m *MockBillingSource) MonthlyBill(ctx context.Context) (billing.Bill, error) {
	if m.BillErr != nil {
		return nil, m.BillErr
	}
	return m.BillValue, nil
}

// BillingRow captures one UpsertBilling call on the MockStore.
type BillingRow struct {
	Balance float64
	Bill    billing.Bill
	Batch   string
}

// MockStore is an in-memory implementation of resource.Store
type MockStore struct {
	mu         sync.Mutex
	Records    map[string]map[resource.Kind][]resource.Record // account -> kind
	Billing    map[string]BillingRow                          // account
	Batches    []string
	UpsertErr  error
	LiveErr    error
	CloseCount int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Records: make(map[string]map[resource.Kind][]resource.Record),
		Billing: make(map[string]BillingRow),
	}
}

func (m *MockStore) UpsertRecords(ctx context.Context, account string, kind resource.Kind, records []resource.Record, batch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if m.Records[account] == nil {
		m.Records[account] = make(map[resource.Kind][]resource.Record)
	}
	m.Records[account][kind] = append([]resource.Record(nil), records...)
	m.Batches = append(m.Batches, batch)
	return nil
}

func (m *MockStore) UpsertBilling(ctx context.Context, account string, balance float64, bill billing.Bill, batch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Billing[account] = BillingRow{Balance: balance, Bill: bill, Batch: batch}
	m.Batches = append(m.Batches, batch)
	return nil
}

func (m *MockStore) Live(ctx context.Context) error { return m.LiveErr }

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCount++
	return nil
}

// MockChannel records every Send and reports configurable per-target results.
type MockChannel struct {
	mu      sync.Mutex
	Targets []string        // all known target names
	Results map[string]bool // overrides; missing names succeed
	Sent    []SentMessage
}

// SentMessage is one captured Send call.
type SentMessage struct {
	Subject string // empty for webhook channels
	Body    string
	Names   []string
}

func NewMockChannel(targets ...string) *MockChannel {
	return &MockChannel{
		Targets: targets,
		Results: make(map[string]bool),
	}
}

func (m *MockChannel) Send(ctx context.Context, body string, names ...string) map[string]bool {
	return m.record(SentMessage{Body: body, Names: names}, names)
}

// SendMail matches the email channel shape. Wrap with EmailAdapter to use it
// where an EmailChannel is expected.
func (m *MockChannel) SendMail(ctx context.Context, subject, body string, names ...string) map[string]bool {
	return m.record(SentMessage{Subject: subject, Body: body, Names: names}, names)
}

func (m *MockChannel) record(msg SentMessage, names []string) map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)

	targets := names
	if len(targets) == 0 {
		targets = m.Targets
	}
	results := make(map[string]bool, len(targets))
	for _, name := range targets {
		ok, overridden := m.Results[name]
		results[name] = !overridden || ok
	}
	return results
}

// EmailAdapter exposes a MockChannel through the email Send signature.
type EmailAdapter struct{ *MockChannel }

func (a EmailAdapter) Send(ctx context.Context, subject, htmlBody string, names ...string) map[string]bool {
	return a.SendMail(ctx, subject, htmlBody, names...)
}
