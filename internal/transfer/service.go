package transfer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mesa-pos/mesa-pos/internal/ledger"
	"github.com/mesa-pos/mesa-pos/internal/shared"
)

const approvalEpsilon = 0.0001

// RepositoryPort abstracts persistence for tests.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, id int64) (StockRequest, error)
	GetRequestByNumber(ctx context.Context, number string) (StockRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]StockRequest, int, error)
	GetTransfer(ctx context.Context, id int64) (StockTransfer, error)
	GetTransferByRequest(ctx context.Context, requestID int64) (StockTransfer, error)
	ListDiscrepancies(ctx context.Context, since time.Time) ([]StockTransfer, error)
}

// LedgerPort posts stock movements. Each call runs in its own
// transaction; deliveries compensate on partial failure.
type LedgerPort interface {
	ApplyMovement(ctx context.Context, input ledger.MovementInput) (ledger.BranchStock, error)
}

// CatalogPort validates branch and item references.
type CatalogPort interface {
	BranchExists(ctx context.Context, id int64) (bool, error)
	ItemExists(ctx context.Context, id int64) (bool, error)
}

// AuditPort records domain events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort deduplicates ship/receive submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service drives the request/transfer workflow.
type Service struct {
	repo    RepositoryPort
	ledger  LedgerPort
	catalog CatalogPort
	audit   AuditPort
	locks   *shared.EntityLocks
	idem    IdempotencyPort
	org     string
}

// NewService constructs Service. audit, locks and idem may be nil.
func NewService(repo RepositoryPort, ledgerPort LedgerPort, catalog CatalogPort, audit AuditPort, locks *shared.EntityLocks, idem IdempotencyPort, org string) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledgerPort,
		catalog: catalog,
		audit:   audit,
		locks:   locks,
		idem:    idem,
		org:     org,
	}
}

// RequestLineInput is one line of a new stock request.
type RequestLineInput struct {
	ItemID   int64
	Quantity float64
	Unit     string
	Priority int
}

// CreateRequestInput describes a new stock request.
type CreateRequestInput struct {
	OriginID      int64
	DestinationID int64
	RequiredDate  time.Time
	Notes         string
	Lines         []RequestLineInput
}

// CreateRequest validates the input and persists a request in status NEW.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (StockRequest, error) {
	if input.OriginID <= 0 || input.DestinationID <= 0 {
		return StockRequest{}, &ValidationError{Reason: "origin and destination branches are required"}
	}
	if input.OriginID == input.DestinationID {
		return StockRequest{}, &ValidationError{Reason: "origin and destination must differ"}
	}
	if len(input.Lines) == 0 {
		return StockRequest{}, &ValidationError{Reason: "at least one line is required"}
	}
	for _, branchID := range []int64{input.OriginID, input.DestinationID} {
		ok, err := s.catalog.BranchExists(ctx, branchID)
		if err != nil {
			return StockRequest{}, err
		}
		if !ok {
			return StockRequest{}, &ValidationError{Reason: fmt.Sprintf("branch %d does not exist", branchID)}
		}
	}
	seen := make(map[int64]bool, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity < approvalEpsilon {
			return StockRequest{}, &ValidationError{Reason: fmt.Sprintf("item %d: quantity must be positive", line.ItemID)}
		}
		if seen[line.ItemID] {
			return StockRequest{}, &ValidationError{Reason: fmt.Sprintf("item %d appears more than once", line.ItemID)}
		}
		seen[line.ItemID] = true
		ok, err := s.catalog.ItemExists(ctx, line.ItemID)
		if err != nil {
			return StockRequest{}, err
		}
		if !ok {
			return StockRequest{}, &ValidationError{Reason: fmt.Sprintf("item %d does not exist", line.ItemID)}
		}
	}

	actor := shared.ActorFromContext(ctx)
	var requestID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextDocumentNumber(ctx, s.org, "SR")
		if err != nil {
			return err
		}
		req := StockRequest{
			RequestNumber: fmt.Sprintf("SR-%s-%d", s.org, seq),
			OriginID:      input.OriginID,
			DestinationID: input.DestinationID,
			Status:        RequestStatusNew,
			RequiredDate:  input.RequiredDate,
			Notes:         input.Notes,
			CreatedBy:     actor.UserID,
		}
		requestID, err = tx.CreateRequest(ctx, req)
		if err != nil {
			return err
		}
		for i, line := range input.Lines {
			item := StockRequestItem{
				RequestID:         requestID,
				ItemID:            line.ItemID,
				QuantityRequested: line.Quantity,
				Unit:              line.Unit,
				Priority:          line.Priority,
				SortOrder:         i,
			}
			if err := tx.InsertRequestItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return StockRequest{}, err
	}

	s.recordAudit(ctx, actor.UserID, "transfer:request_created", "stock_request", requestID, map[string]any{
		"origin_id":      input.OriginID,
		"destination_id": input.DestinationID,
		"lines":          len(input.Lines),
	})
	return s.repo.GetRequest(ctx, requestID)
}

// SubmitForApproval moves a request from NEW to PENDING.
func (s *Service) SubmitForApproval(ctx context.Context, requestID int64) (StockRequest, error) {
	release, err := s.locks.Acquire(ctx, shared.RequestLockKey(requestID))
	if err != nil {
		return StockRequest{}, err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransition(RequestStatusPending) {
			return invalidRequestTransition(req, RequestStatusPending)
		}
		return tx.UpdateRequestStatus(ctx, requestID, RequestStatusPending)
	})
	if err != nil {
		return StockRequest{}, err
	}

	actor := shared.ActorFromContext(ctx)
	s.recordAudit(ctx, actor.UserID, "transfer:request_submitted", "stock_request", requestID, nil)
	return s.repo.GetRequest(ctx, requestID)
}

// ApproveRequest moves a PENDING request to APPROVED and creates exactly
// one transfer in status NEW carrying the approved quantities. Lines
// absent from approved default to the requested quantity; lines approved
// at zero are dropped from the transfer.
func (s *Service) ApproveRequest(ctx context.Context, requestID int64, approved QuantityByItem) (StockTransfer, error) {
	release, err := s.locks.Acquire(ctx, shared.RequestLockKey(requestID))
	if err != nil {
		return StockTransfer{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return StockTransfer{}, err
	}
	lineByItem := make(map[int64]StockRequestItem, len(req.Items))
	for _, item := range req.Items {
		lineByItem[item.ItemID] = item
	}
	for itemID := range approved {
		if _, ok := lineByItem[itemID]; !ok {
			return StockTransfer{}, &ValidationError{Reason: fmt.Sprintf("item %d is not on the request", itemID)}
		}
	}

	actor := shared.ActorFromContext(ctx)
	var transferID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(RequestStatusApproved) {
			return invalidRequestTransition(current, RequestStatusApproved)
		}

		approvable := 0
		for _, item := range req.Items {
			qty := item.QuantityRequested
			if override, ok := approved[item.ItemID]; ok {
				qty = override
			}
			if qty < 0 {
				return &ValidationError{Reason: fmt.Sprintf("item %d: approved quantity must not be negative", item.ItemID)}
			}
			if qty > item.QuantityRequested+approvalEpsilon {
				return &ValidationError{Reason: fmt.Sprintf("item %d: approved quantity exceeds requested", item.ItemID)}
			}
			if err := tx.SetRequestItemApproved(ctx, item.ID, qty); err != nil {
				return err
			}
			lineByItem[item.ItemID] = StockRequestItem{ID: item.ID, ItemID: item.ItemID, QuantityApproved: qty}
			if qty >= approvalEpsilon {
				approvable++
			}
		}
		if approvable == 0 {
			return &ValidationError{Reason: "no line has a positive approved quantity"}
		}

		if err := tx.UpdateRequestStatus(ctx, requestID, RequestStatusApproved); err != nil {
			return err
		}
		if err := tx.SetRequestApproval(ctx, requestID, actor.UserID); err != nil {
			return err
		}

		seq, err := tx.NextDocumentNumber(ctx, s.org, "TR")
		if err != nil {
			return err
		}
		transferID, err = tx.CreateTransfer(ctx, StockTransfer{
			TransferNumber: fmt.Sprintf("TR-%s-%d", s.org, seq),
			RequestID:      requestID,
			OriginID:       req.OriginID,
			DestinationID:  req.DestinationID,
			Status:         TransferStatusNew,
			CreatedBy:      actor.UserID,
			ApprovedBy:     actor.UserID,
		})
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			qty := lineByItem[item.ItemID].QuantityApproved
			if qty < approvalEpsilon {
				continue
			}
			err := tx.InsertTransferItem(ctx, StockTransferItem{
				TransferID:       transferID,
				ItemID:           item.ItemID,
				QuantityApproved: qty,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return StockTransfer{}, err
	}

	s.recordAudit(ctx, actor.UserID, "transfer:request_approved", "stock_request", requestID, map[string]any{
		"transfer_id": transferID,
	})
	return s.repo.GetTransfer(ctx, transferID)
}

// RejectRequest moves a PENDING request to REJECTED. The reason, when
// given, is appended to the request notes.
func (s *Service) RejectRequest(ctx context.Context, requestID int64, reason string) (StockRequest, error) {
	release, err := s.locks.Acquire(ctx, shared.RequestLockKey(requestID))
	if err != nil {
		return StockRequest{}, err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransition(RequestStatusRejected) {
			return invalidRequestTransition(req, RequestStatusRejected)
		}
		if err := tx.UpdateRequestStatus(ctx, requestID, RequestStatusRejected); err != nil {
			return err
		}
		if reason != "" {
			return tx.AppendRequestNote(ctx, requestID, "rejected: "+reason)
		}
		return nil
	})
	if err != nil {
		return StockRequest{}, err
	}

	actor := shared.ActorFromContext(ctx)
	s.recordAudit(ctx, actor.UserID, "transfer:request_rejected", "stock_request", requestID, map[string]any{"reason": reason})
	return s.repo.GetRequest(ctx, requestID)
}

// CancelRequest cancels a NEW or PENDING request.
func (s *Service) CancelRequest(ctx context.Context, requestID int64) (StockRequest, error) {
	release, err := s.locks.Acquire(ctx, shared.RequestLockKey(requestID))
	if err != nil {
		return StockRequest{}, err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransition(RequestStatusCancelled) {
			return invalidRequestTransition(req, RequestStatusCancelled)
		}
		return tx.UpdateRequestStatus(ctx, requestID, RequestStatusCancelled)
	})
	if err != nil {
		return StockRequest{}, err
	}

	actor := shared.ActorFromContext(ctx)
	s.recordAudit(ctx, actor.UserID, "transfer:request_cancelled", "stock_request", requestID, nil)
	return s.repo.GetRequest(ctx, requestID)
}

// GetRequest returns a request with its lines.
func (s *Service) GetRequest(ctx context.Context, requestID int64) (StockRequest, error) {
	return s.repo.GetRequest(ctx, requestID)
}

// GetRequestByNumber returns a request by its document number.
func (s *Service) GetRequestByNumber(ctx context.Context, number string) (StockRequest, error) {
	if number == "" {
		return StockRequest{}, &ValidationError{Reason: "request number is required"}
	}
	return s.repo.GetRequestByNumber(ctx, number)
}

// ListRequests returns a page of requests.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]StockRequest, shared.Pagination, error) {
	requests, total, err := s.repo.ListRequests(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return requests, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// GetTransfer returns a transfer with its lines.
func (s *Service) GetTransfer(ctx context.Context, transferID int64) (StockTransfer, error) {
	return s.repo.GetTransfer(ctx, transferID)
}

// GetTransferForRequest returns the transfer created for a request.
func (s *Service) GetTransferForRequest(ctx context.Context, requestID int64) (StockTransfer, error) {
	return s.repo.GetTransferByRequest(ctx, requestID)
}

// ListDiscrepancies returns completed transfers with discrepancies since
// the given time.
func (s *Service) ListDiscrepancies(ctx context.Context, since time.Time) ([]StockTransfer, error) {
	return s.repo.ListDiscrepancies(ctx, since)
}

// MarkDelivering moves a NEW transfer to DELIVERING, records shipped
// quantities and debits the origin branch. Lines absent from shipped
// default to the approved quantity; no line may ship more than approved.
// A repeated idempotencyKey returns the stored transfer unchanged.
func (s *Service) MarkDelivering(ctx context.Context, transferID int64, shipped QuantityByItem, idempotencyKey string) (StockTransfer, error) {
	if idempotencyKey != "" && s.idem != nil {
		err := s.idem.CheckAndInsert(ctx, idempotencyKey, "transfer:deliver")
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return s.repo.GetTransfer(ctx, transferID)
		}
		if err != nil {
			return StockTransfer{}, err
		}
	}
	fail := func(err error) (StockTransfer, error) {
		if idempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, idempotencyKey)
		}
		return StockTransfer{}, err
	}

	release, err := s.locks.Acquire(ctx, shared.TransferLockKey(transferID))
	if err != nil {
		return fail(err)
	}
	defer release()

	transfer, err := s.repo.GetTransfer(ctx, transferID)
	if err != nil {
		return fail(err)
	}
	for itemID := range shipped {
		if !transferHasItem(transfer, itemID) {
			return fail(&ValidationError{Reason: fmt.Sprintf("item %d is not on the transfer", itemID)})
		}
	}

	actor := shared.ActorFromContext(ctx)
	shippedByItem := make(map[int64]float64, len(transfer.Items))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransferForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(TransferStatusDelivering) {
			return invalidTransferTransition(current, TransferStatusDelivering)
		}

		for _, item := range transfer.Items {
			qty := item.QuantityApproved
			if override, ok := shipped[item.ItemID]; ok {
				qty = override
			}
			if qty < 0 {
				return &ValidationError{Reason: fmt.Sprintf("item %d: shipped quantity must not be negative", item.ItemID)}
			}
			if qty > item.QuantityApproved+approvalEpsilon {
				return &ValidationError{Reason: fmt.Sprintf("item %d: shipped quantity exceeds approved", item.ItemID)}
			}
			if err := tx.SetTransferItemShipped(ctx, item.ID, qty); err != nil {
				return err
			}
			shippedByItem[item.ItemID] = qty
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	// Debit the origin one line at a time. Any failure after a debit has
	// been applied compensates the applied lines so a retry starts clean.
	var debited []ledger.MovementInput
	undoDebits := func() {
		for _, applied := range debited {
			applied.Delta = -applied.Delta
			applied.Type = ledger.MovementCorrection
			applied.Note = "delivery rollback " + transfer.TransferNumber
			_, _ = s.ledger.ApplyMovement(ctx, applied)
		}
	}
	for itemID, qty := range shippedByItem {
		if qty < approvalEpsilon {
			continue
		}
		input := ledger.MovementInput{
			BranchID:   transfer.OriginID,
			ItemID:     itemID,
			Delta:      -qty,
			Type:       ledger.MovementTransfer,
			Note:       "transfer out " + transfer.TransferNumber,
			TransferID: transferID,
			ActorID:    actor.UserID,
		}
		if _, err := s.ledger.ApplyMovement(ctx, input); err != nil {
			undoDebits()
			return fail(err)
		}
		debited = append(debited, input)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateTransferStatus(ctx, transferID, TransferStatusDelivering)
	})
	if err != nil {
		undoDebits()
		return fail(err)
	}

	s.recordAudit(ctx, actor.UserID, "transfer:delivering", "stock_transfer", transferID, map[string]any{
		"origin_id": transfer.OriginID,
		"lines":     len(debited),
	})
	return s.repo.GetTransfer(ctx, transferID)
}

// RecordReceipt moves a DELIVERING transfer to COMPLETED, reconciles
// every line against the shipped quantity and credits the destination by
// what was actually received. Every line must carry an explicit received
// quantity. A repeated idempotencyKey returns the stored transfer
// unchanged.
func (s *Service) RecordReceipt(ctx context.Context, transferID int64, received QuantityByItem, idempotencyKey string) (StockTransfer, error) {
	if idempotencyKey != "" && s.idem != nil {
		err := s.idem.CheckAndInsert(ctx, idempotencyKey, "transfer:receive")
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return s.repo.GetTransfer(ctx, transferID)
		}
		if err != nil {
			return StockTransfer{}, err
		}
	}
	fail := func(err error) (StockTransfer, error) {
		if idempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, idempotencyKey)
		}
		return StockTransfer{}, err
	}

	release, err := s.locks.Acquire(ctx, shared.TransferLockKey(transferID))
	if err != nil {
		return fail(err)
	}
	defer release()

	transfer, err := s.repo.GetTransfer(ctx, transferID)
	if err != nil {
		return fail(err)
	}
	for itemID := range received {
		if !transferHasItem(transfer, itemID) {
			return fail(&ValidationError{Reason: fmt.Sprintf("item %d is not on the transfer", itemID)})
		}
	}
	for _, item := range transfer.Items {
		qty, ok := received[item.ItemID]
		if !ok {
			return fail(&ValidationError{Reason: fmt.Sprintf("item %d: received quantity is required", item.ItemID)})
		}
		if qty < 0 {
			return fail(&ValidationError{Reason: fmt.Sprintf("item %d: received quantity must not be negative", item.ItemID)})
		}
	}

	actor := shared.ActorFromContext(ctx)
	if !transfer.Status.CanTransition(TransferStatusCompleted) {
		return fail(invalidTransferTransition(transfer, TransferStatusCompleted))
	}

	now := time.Now().UTC()
	var hasDiscrepancies bool
	for i := range transfer.Items {
		item := &transfer.Items[i]
		item.QuantityReceived = received[item.ItemID]
		item.Discrepancy, item.DiscrepancyReason, item.DiscrepancyQty = ReconcileLine(item.QuantityShipped, item.QuantityReceived)
		if item.Discrepancy {
			hasDiscrepancies = true
		}
	}

	// Credit the destination before completing, so a failed credit leaves
	// the transfer in DELIVERING and retryable. Any failure after a credit
	// has been applied compensates the applied lines.
	var credited []ledger.MovementInput
	undoCredits := func() {
		for _, applied := range credited {
			applied.Delta = -applied.Delta
			applied.Type = ledger.MovementCorrection
			applied.Note = "receipt rollback " + transfer.TransferNumber
			_, _ = s.ledger.ApplyMovement(ctx, applied)
		}
	}
	for _, item := range transfer.Items {
		if item.QuantityReceived < approvalEpsilon {
			continue
		}
		input := ledger.MovementInput{
			BranchID:   transfer.DestinationID,
			ItemID:     item.ItemID,
			Delta:      item.QuantityReceived,
			Type:       ledger.MovementTransfer,
			Note:       "transfer in " + transfer.TransferNumber,
			TransferID: transferID,
			ActorID:    actor.UserID,
		}
		if _, err := s.ledger.ApplyMovement(ctx, input); err != nil {
			undoCredits()
			return fail(fmt.Errorf("transfer %d: crediting destination: %w", transferID, err))
		}
		credited = append(credited, input)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransferForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(TransferStatusCompleted) {
			return invalidTransferTransition(current, TransferStatusCompleted)
		}
		for _, item := range transfer.Items {
			if err := tx.SetTransferItemReceipt(ctx, item); err != nil {
				return err
			}
		}
		return tx.CompleteTransfer(ctx, transferID, now, hasDiscrepancies)
	})
	if err != nil {
		undoCredits()
		return fail(err)
	}

	s.recordAudit(ctx, actor.UserID, "transfer:received", "stock_transfer", transferID, map[string]any{
		"destination_id":    transfer.DestinationID,
		"has_discrepancies": hasDiscrepancies,
	})
	return s.repo.GetTransfer(ctx, transferID)
}

// RejectTransfer rejects a NEW transfer before anything has shipped.
func (s *Service) RejectTransfer(ctx context.Context, transferID int64, reason string) (StockTransfer, error) {
	release, err := s.locks.Acquire(ctx, shared.TransferLockKey(transferID))
	if err != nil {
		return StockTransfer{}, err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransferForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(TransferStatusRejected) {
			return invalidTransferTransition(current, TransferStatusRejected)
		}
		return tx.UpdateTransferStatus(ctx, transferID, TransferStatusRejected)
	})
	if err != nil {
		return StockTransfer{}, err
	}

	actor := shared.ActorFromContext(ctx)
	s.recordAudit(ctx, actor.UserID, "transfer:rejected", "stock_transfer", transferID, map[string]any{"reason": reason})
	return s.repo.GetTransfer(ctx, transferID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

func transferHasItem(t StockTransfer, itemID int64) bool {
	for _, item := range t.Items {
		if item.ItemID == itemID {
			return true
		}
	}
	return false
}

func invalidRequestTransition(req StockRequest, to RequestStatus) error {
	return &InvalidTransitionError{
		Entity:   "stock_request",
		EntityID: strconv.FormatInt(req.ID, 10),
		From:     string(req.Status),
		To:       string(to),
	}
}

func invalidTransferTransition(t StockTransfer, to TransferStatus) error {
	return &InvalidTransitionError{
		Entity:   "stock_transfer",
		EntityID: strconv.FormatInt(t.ID, 10),
		From:     string(t.Status),
		To:       string(to),
	}
}
