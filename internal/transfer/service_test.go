package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesa-pos/mesa-pos/internal/ledger"
	"github.com/mesa-pos/mesa-pos/internal/shared"
)

type memoryRepo struct {
	requests  map[int64]*StockRequest
	reqItems  map[int64]*StockRequestItem
	transfers map[int64]*StockTransfer
	trItems   map[int64]*StockTransferItem
	sequences map[string]int64
	nextID    int64

	statusUpdateErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		requests:  make(map[int64]*StockRequest),
		reqItems:  make(map[int64]*StockRequestItem),
		transfers: make(map[int64]*StockTransfer),
		trItems:   make(map[int64]*StockTransferItem),
		sequences: make(map[string]int64),
	}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetRequest(ctx context.Context, id int64) (StockRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return StockRequest{}, ErrNotFound
	}
	out := *req
	out.Items = nil
	for _, item := range r.reqItems {
		if item.RequestID == id {
			out.Items = append(out.Items, *item)
		}
	}
	sortRequestItems(out.Items)
	return out, nil
}

func (r *memoryRepo) GetRequestByNumber(ctx context.Context, number string) (StockRequest, error) {
	for id, req := range r.requests {
		if req.RequestNumber == number {
			return r.GetRequest(ctx, id)
		}
	}
	return StockRequest{}, ErrNotFound
}

func sortRequestItems(items []StockRequestItem) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].SortOrder > items[j].SortOrder; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

func (r *memoryRepo) ListRequests(ctx context.Context, filter RequestFilter) ([]StockRequest, int, error) {
	var out []StockRequest
	for id := range r.requests {
		req, _ := r.GetRequest(ctx, id)
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.OriginID != 0 && req.OriginID != filter.OriginID {
			continue
		}
		if filter.DestinationID != 0 && req.DestinationID != filter.DestinationID {
			continue
		}
		out = append(out, req)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetTransfer(ctx context.Context, id int64) (StockTransfer, error) {
	tr, ok := r.transfers[id]
	if !ok {
		return StockTransfer{}, ErrNotFound
	}
	out := *tr
	out.Items = nil
	for _, item := range r.trItems {
		if item.TransferID == id {
			out.Items = append(out.Items, *item)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetTransferByRequest(ctx context.Context, requestID int64) (StockTransfer, error) {
	for id, tr := range r.transfers {
		if tr.RequestID == requestID {
			return r.GetTransfer(ctx, id)
		}
	}
	return StockTransfer{}, ErrNotFound
}

func (r *memoryRepo) ListDiscrepancies(ctx context.Context, since time.Time) ([]StockTransfer, error) {
	var out []StockTransfer
	for id, tr := range r.transfers {
		if tr.Status != TransferStatusCompleted || !tr.HasDiscrepancies {
			continue
		}
		if tr.DateReceived == nil || tr.DateReceived.Before(since) {
			continue
		}
		full, _ := r.GetTransfer(ctx, id)
		out = append(out, full)
	}
	return out, nil
}

func (tx *memoryTx) NextDocumentNumber(ctx context.Context, org, kind string) (int64, error) {
	key := org + ":" + kind
	if tx.repo.sequences[key] == 0 {
		tx.repo.sequences[key] = 10000
	}
	tx.repo.sequences[key]++
	return tx.repo.sequences[key], nil
}

func (tx *memoryTx) CreateRequest(ctx context.Context, req StockRequest) (int64, error) {
	id := tx.repo.id()
	stored := req
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	tx.repo.requests[id] = &stored
	return id, nil
}

func (tx *memoryTx) InsertRequestItem(ctx context.Context, item StockRequestItem) error {
	id := tx.repo.id()
	stored := item
	stored.ID = id
	tx.repo.reqItems[id] = &stored
	return nil
}

func (tx *memoryTx) GetRequestForUpdate(ctx context.Context, id int64) (StockRequest, error) {
	req, ok := tx.repo.requests[id]
	if !ok {
		return StockRequest{}, ErrNotFound
	}
	return *req, nil
}

func (tx *memoryTx) UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus) error {
	req, ok := tx.repo.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

func (tx *memoryTx) SetRequestApproval(ctx context.Context, id, actorID int64) error {
	req, ok := tx.repo.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.ApprovedBy = actorID
	return nil
}

func (tx *memoryTx) AppendRequestNote(ctx context.Context, id int64, note string) error {
	req, ok := tx.repo.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Notes != "" {
		req.Notes += "\n"
	}
	req.Notes += note
	return nil
}

func (tx *memoryTx) SetRequestItemApproved(ctx context.Context, itemID int64, qty float64) error {
	item, ok := tx.repo.reqItems[itemID]
	if !ok {
		return ErrNotFound
	}
	item.QuantityApproved = qty
	return nil
}

func (tx *memoryTx) CreateTransfer(ctx context.Context, t StockTransfer) (int64, error) {
	id := tx.repo.id()
	stored := t
	stored.ID = id
	stored.DateCreated = time.Now()
	tx.repo.transfers[id] = &stored
	return id, nil
}

func (tx *memoryTx) InsertTransferItem(ctx context.Context, item StockTransferItem) error {
	id := tx.repo.id()
	stored := item
	stored.ID = id
	tx.repo.trItems[id] = &stored
	return nil
}

func (tx *memoryTx) GetTransferForUpdate(ctx context.Context, id int64) (StockTransfer, error) {
	tr, ok := tx.repo.transfers[id]
	if !ok {
		return StockTransfer{}, ErrNotFound
	}
	return *tr, nil
}

func (tx *memoryTx) UpdateTransferStatus(ctx context.Context, id int64, status TransferStatus) error {
	if err := tx.repo.statusUpdateErr; err != nil {
		tx.repo.statusUpdateErr = nil
		return err
	}
	tr, ok := tx.repo.transfers[id]
	if !ok {
		return ErrNotFound
	}
	tr.Status = status
	return nil
}

func (tx *memoryTx) SetTransferItemShipped(ctx context.Context, itemID int64, qty float64) error {
	item, ok := tx.repo.trItems[itemID]
	if !ok {
		return ErrNotFound
	}
	item.QuantityShipped = qty
	return nil
}

func (tx *memoryTx) SetTransferItemReceipt(ctx context.Context, item StockTransferItem) error {
	stored, ok := tx.repo.trItems[item.ID]
	if !ok {
		return ErrNotFound
	}
	stored.QuantityReceived = item.QuantityReceived
	stored.Discrepancy = item.Discrepancy
	stored.DiscrepancyReason = item.DiscrepancyReason
	stored.DiscrepancyQty = item.DiscrepancyQty
	return nil
}

func (tx *memoryTx) CompleteTransfer(ctx context.Context, id int64, receivedAt time.Time, hasDiscrepancies bool) error {
	tr, ok := tx.repo.transfers[id]
	if !ok {
		return ErrNotFound
	}
	tr.Status = TransferStatusCompleted
	tr.DateReceived = &receivedAt
	tr.HasDiscrepancies = hasDiscrepancies
	return nil
}

type fakeLedger struct {
	stock     map[string]float64
	movements []ledger.MovementInput
	failOn    func(ledger.MovementInput) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{stock: make(map[string]float64)}
}

func stockKey(branchID, itemID int64) string {
	return fmt.Sprintf("%d:%d", branchID, itemID)
}

func (f *fakeLedger) ApplyMovement(ctx context.Context, input ledger.MovementInput) (ledger.BranchStock, error) {
	if f.failOn != nil {
		if err := f.failOn(input); err != nil {
			return ledger.BranchStock{}, err
		}
	}
	key := stockKey(input.BranchID, input.ItemID)
	next := f.stock[key] + input.Delta
	if next < -0.0001 && input.Type != ledger.MovementCorrection {
		return ledger.BranchStock{}, &ledger.NegativeStockError{BranchID: input.BranchID, ItemID: input.ItemID, Attempted: next}
	}
	f.stock[key] = next
	f.movements = append(f.movements, input)
	return ledger.BranchStock{BranchID: input.BranchID, ItemID: input.ItemID, Quantity: next}, nil
}

type fakeCatalog struct {
	missingBranches map[int64]bool
	missingItems    map[int64]bool
}

func (f *fakeCatalog) BranchExists(ctx context.Context, id int64) (bool, error) {
	return !f.missingBranches[id], nil
}

func (f *fakeCatalog) ItemExists(ctx context.Context, id int64) (bool, error) {
	return !f.missingItems[id], nil
}

type memoryIdem struct {
	keys map[string]bool
}

func (m *memoryIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type fixture struct {
	repo    *memoryRepo
	ledger  *fakeLedger
	catalog *fakeCatalog
	idem    *memoryIdem
	svc     *Service
	ctx     context.Context
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	ledgerPort := newFakeLedger()
	catalogPort := &fakeCatalog{missingBranches: map[int64]bool{}, missingItems: map[int64]bool{}}
	idem := &memoryIdem{}
	svc := NewService(repo, ledgerPort, catalogPort, nil, nil, idem, "MESA")
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{UserID: 7, BranchID: 2})
	return &fixture{repo: repo, ledger: ledgerPort, catalog: catalogPort, idem: idem, svc: svc, ctx: ctx}
}

func (f *fixture) createRequest(t *testing.T) StockRequest {
	t.Helper()
	req, err := f.svc.CreateRequest(f.ctx, CreateRequestInput{
		OriginID:      1,
		DestinationID: 2,
		Notes:         "weekend rush",
		Lines: []RequestLineInput{
			{ItemID: 100, Quantity: 10, Unit: "kg"},
			{ItemID: 200, Quantity: 4, Unit: "can"},
		},
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) approvedTransfer(t *testing.T) StockTransfer {
	t.Helper()
	req := f.createRequest(t)
	_, err := f.svc.SubmitForApproval(f.ctx, req.ID)
	require.NoError(t, err)
	tr, err := f.svc.ApproveRequest(f.ctx, req.ID, nil)
	require.NoError(t, err)
	return tr
}

func TestRequestWorkflowHappyPath(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50

	req := f.createRequest(t)
	require.Equal(t, RequestStatusNew, req.Status)
	require.Equal(t, "SR-MESA-10001", req.RequestNumber)
	require.Len(t, req.Items, 2)
	require.Equal(t, int64(7), req.CreatedBy)

	byNumber, err := f.svc.GetRequestByNumber(f.ctx, "SR-MESA-10001")
	require.NoError(t, err)
	require.Equal(t, req.ID, byNumber.ID)

	req, err = f.svc.SubmitForApproval(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, RequestStatusPending, req.Status)

	tr, err := f.svc.ApproveRequest(f.ctx, req.ID, QuantityByItem{100: 8})
	require.NoError(t, err)
	require.Equal(t, TransferStatusNew, tr.Status)
	require.Equal(t, "TR-MESA-10001", tr.TransferNumber)
	require.Equal(t, req.ID, tr.RequestID)
	require.Len(t, tr.Items, 2)
	for _, item := range tr.Items {
		switch item.ItemID {
		case 100:
			require.InDelta(t, 8.0, item.QuantityApproved, 0.0001)
		case 200:
			require.InDelta(t, 4.0, item.QuantityApproved, 0.0001)
		}
	}

	req, err = f.svc.GetRequest(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, RequestStatusApproved, req.Status)
	require.Equal(t, int64(7), req.ApprovedBy)

	tr, err = f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, tr.Status)
	require.InDelta(t, 42.0, f.ledger.stock[stockKey(1, 100)], 0.0001)
	require.InDelta(t, 46.0, f.ledger.stock[stockKey(1, 200)], 0.0001)

	tr, err = f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 8, 200: 4}, "")
	require.NoError(t, err)
	require.Equal(t, TransferStatusCompleted, tr.Status)
	require.False(t, tr.HasDiscrepancies)
	require.NotNil(t, tr.DateReceived)
	require.InDelta(t, 8.0, f.ledger.stock[stockKey(2, 100)], 0.0001)
	require.InDelta(t, 4.0, f.ledger.stock[stockKey(2, 200)], 0.0001)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture()

	var validation *ValidationError

	_, err := f.svc.CreateRequest(f.ctx, CreateRequestInput{OriginID: 1, DestinationID: 1, Lines: []RequestLineInput{{ItemID: 1, Quantity: 2}}})
	require.ErrorAs(t, err, &validation)

	_, err = f.svc.CreateRequest(f.ctx, CreateRequestInput{OriginID: 1, DestinationID: 2})
	require.ErrorAs(t, err, &validation)

	_, err = f.svc.CreateRequest(f.ctx, CreateRequestInput{OriginID: 1, DestinationID: 2, Lines: []RequestLineInput{{ItemID: 1, Quantity: 0}}})
	require.ErrorAs(t, err, &validation)

	f.catalog.missingBranches[9] = true
	_, err = f.svc.CreateRequest(f.ctx, CreateRequestInput{OriginID: 9, DestinationID: 2, Lines: []RequestLineInput{{ItemID: 1, Quantity: 2}}})
	require.ErrorAs(t, err, &validation)

	f.catalog.missingItems[55] = true
	_, err = f.svc.CreateRequest(f.ctx, CreateRequestInput{OriginID: 1, DestinationID: 2, Lines: []RequestLineInput{{ItemID: 55, Quantity: 2}}})
	require.ErrorAs(t, err, &validation)
}

func TestApproveRejectsOverApproval(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	_, err := f.svc.SubmitForApproval(f.ctx, req.ID)
	require.NoError(t, err)

	var validation *ValidationError
	_, err = f.svc.ApproveRequest(f.ctx, req.ID, QuantityByItem{100: 11})
	require.ErrorAs(t, err, &validation)

	req, err = f.svc.GetRequest(f.ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, RequestStatusPending, req.Status)
}

func TestApproveRequiresPending(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)

	var transition *InvalidTransitionError
	_, err := f.svc.ApproveRequest(f.ctx, req.ID, nil)
	require.ErrorAs(t, err, &transition)
	require.Equal(t, string(RequestStatusNew), transition.From)
}

func TestRejectRequestAppendsReason(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	_, err := f.svc.SubmitForApproval(f.ctx, req.ID)
	require.NoError(t, err)

	req, err = f.svc.RejectRequest(f.ctx, req.ID, "origin cannot spare the flour")
	require.NoError(t, err)
	require.Equal(t, RequestStatusRejected, req.Status)
	require.True(t, strings.Contains(req.Notes, "rejected: origin cannot spare the flour"))
}

func TestCancelTerminalRequestFails(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)

	var transition *InvalidTransitionError
	_, err := f.svc.CancelRequest(f.ctx, tr.RequestID)
	require.ErrorAs(t, err, &transition)
	require.Equal(t, string(RequestStatusApproved), transition.From)
}

func TestApprovalCreatesExactlyOneTransfer(t *testing.T) {
	f := newFixture()
	tr := f.approvedTransfer(t)

	linked, err := f.svc.GetTransferForRequest(f.ctx, tr.RequestID)
	require.NoError(t, err)
	require.Equal(t, tr.ID, linked.ID)

	var transition *InvalidTransitionError
	_, err = f.svc.ApproveRequest(f.ctx, tr.RequestID, nil)
	require.ErrorAs(t, err, &transition)
	require.Len(t, f.repo.transfers, 1)
}

func TestDeliverRejectsOverShipment(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)

	var validation *ValidationError
	_, err := f.svc.MarkDelivering(f.ctx, tr.ID, QuantityByItem{100: 12}, "")
	require.ErrorAs(t, err, &validation)

	tr, err = f.svc.GetTransfer(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, TransferStatusNew, tr.Status)
	require.Empty(t, f.ledger.movements)
}

func TestDeliverInsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	// Nothing on hand for item 200 at the origin.
	tr := f.approvedTransfer(t)

	var negative *ledger.NegativeStockError
	_, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.ErrorAs(t, err, &negative)
	require.Equal(t, int64(200), negative.ItemID)

	tr, err = f.svc.GetTransfer(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, TransferStatusNew, tr.Status)
	require.InDelta(t, 50.0, f.ledger.stock[stockKey(1, 100)], 0.0001)
	require.InDelta(t, 0.0, f.ledger.stock[stockKey(1, 200)], 0.0001)
}

func TestReceiptRequiresEveryLine(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)
	tr, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)

	var validation *ValidationError
	_, err = f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 10}, "")
	require.ErrorAs(t, err, &validation)

	tr, err = f.svc.GetTransfer(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, tr.Status)
}

func TestReceiptRecordsShortageAndCreditsReceived(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)
	tr, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)

	tr, err = f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 7, 200: 4}, "")
	require.NoError(t, err)
	require.Equal(t, TransferStatusCompleted, tr.Status)
	require.True(t, tr.HasDiscrepancies)

	for _, item := range tr.Items {
		switch item.ItemID {
		case 100:
			require.True(t, item.Discrepancy)
			require.Equal(t, ReasonShortage, item.DiscrepancyReason)
			require.InDelta(t, 3.0, item.DiscrepancyQty, 0.0001)
		case 200:
			require.False(t, item.Discrepancy)
		}
	}

	// Destination is credited by what was received, not what shipped.
	require.InDelta(t, 7.0, f.ledger.stock[stockKey(2, 100)], 0.0001)
	require.InDelta(t, 4.0, f.ledger.stock[stockKey(2, 200)], 0.0001)

	since := time.Now().Add(-time.Hour)
	flagged, err := f.svc.ListDiscrepancies(f.ctx, since)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
}

func TestRejectTransferOnlyFromNew(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)

	tr, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)

	var transition *InvalidTransitionError
	_, err = f.svc.RejectTransfer(f.ctx, tr.ID, "wrong branch")
	require.ErrorAs(t, err, &transition)
	require.Equal(t, string(TransferStatusDelivering), transition.From)
}

func TestDeliverIdempotencyKeyReplay(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)

	first, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "deliver-abc")
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, first.Status)
	movementsAfterFirst := len(f.ledger.movements)

	replay, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "deliver-abc")
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, replay.Status)
	require.Len(t, f.ledger.movements, movementsAfterFirst)
	require.InDelta(t, 40.0, f.ledger.stock[stockKey(1, 100)], 0.0001)
}

func TestReceiptIdempotencyKeyReplay(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)
	tr, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)

	first, err := f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 10, 200: 4}, "receive-abc")
	require.NoError(t, err)
	require.Equal(t, TransferStatusCompleted, first.Status)

	replay, err := f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 10, 200: 4}, "receive-abc")
	require.NoError(t, err)
	require.Equal(t, TransferStatusCompleted, replay.Status)
	require.InDelta(t, 10.0, f.ledger.stock[stockKey(2, 100)], 0.0001)
	require.InDelta(t, 4.0, f.ledger.stock[stockKey(2, 200)], 0.0001)
}

func TestReceiptFailedCreditLeavesTransferRetryable(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)
	tr, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "")
	require.NoError(t, err)

	creditsDown := errors.New("ledger unavailable")
	f.ledger.failOn = func(input ledger.MovementInput) error {
		if input.BranchID == 2 && input.Delta > 0 {
			return creditsDown
		}
		return nil
	}

	_, err = f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 10, 200: 4}, "receive-retry")
	require.ErrorIs(t, err, creditsDown)

	tr, err = f.svc.GetTransfer(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, tr.Status)
	require.InDelta(t, 0.0, f.ledger.stock[stockKey(2, 100)], 0.0001)
	require.InDelta(t, 0.0, f.ledger.stock[stockKey(2, 200)], 0.0001)

	f.ledger.failOn = nil
	done, err := f.svc.RecordReceipt(f.ctx, tr.ID, QuantityByItem{100: 10, 200: 4}, "receive-retry")
	require.NoError(t, err)
	require.Equal(t, TransferStatusCompleted, done.Status)
	require.InDelta(t, 10.0, f.ledger.stock[stockKey(2, 100)], 0.0001)
	require.InDelta(t, 4.0, f.ledger.stock[stockKey(2, 200)], 0.0001)
}

func TestDeliverStatusUpdateFailureCompensatesDebits(t *testing.T) {
	f := newFixture()
	f.ledger.stock[stockKey(1, 100)] = 50
	f.ledger.stock[stockKey(1, 200)] = 50
	tr := f.approvedTransfer(t)

	commitErr := errors.New("connection reset")
	f.repo.statusUpdateErr = commitErr
	_, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "deliver-retry")
	require.ErrorIs(t, err, commitErr)

	tr, err = f.svc.GetTransfer(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, TransferStatusNew, tr.Status)
	require.InDelta(t, 50.0, f.ledger.stock[stockKey(1, 100)], 0.0001)
	require.InDelta(t, 50.0, f.ledger.stock[stockKey(1, 200)], 0.0001)

	retry, err := f.svc.MarkDelivering(f.ctx, tr.ID, nil, "deliver-retry")
	require.NoError(t, err)
	require.Equal(t, TransferStatusDelivering, retry.Status)
	require.InDelta(t, 40.0, f.ledger.stock[stockKey(1, 100)], 0.0001)
	require.InDelta(t, 46.0, f.ledger.stock[stockKey(1, 200)], 0.0001)
}
