package searchkit

import (
	"context"

	labelrepo "github.com/kailas-cloud/searchkit/internal/repository/label"
	healthuc "github.com/kailas-cloud/searchkit/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn  func(ctx context.Context, req searchuc.Request) (*searchuc.Result, error)
	prepareFn func(ctx context.Context, req searchuc.Request) (*searchuc.Prepared, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req searchuc.Request) (*searchuc.Result, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) Prepare(ctx context.Context, req searchuc.Request) (*searchuc.Prepared, error) {
	return m.prepareFn(ctx, req)
}

// --- labelUseCase mock ---

type mockLabelUC struct {
	putFn    func(ctx context.Context, labels ...labelrepo.Label) error
	deleteFn func(ctx context.Context, l labelrepo.Label) error
}

func (m *mockLabelUC) Put(ctx context.Context, labels ...labelrepo.Label) error {
	return m.putFn(ctx, labels...)
}

func (m *mockLabelUC) Delete(ctx context.Context, l labelrepo.Label) error {
	return m.deleteFn(ctx, l)
}

// --- pinger / health mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, labelSvc labelUseCase) *Client {
	return &Client{
		engine:    &mockPinger{},
		searchSvc: searchSvc,
		labelSvc:  labelSvc,
		settings:  newSettings(&clientConfig{}),
	}
}
