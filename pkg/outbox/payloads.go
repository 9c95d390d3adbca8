package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockReconcileEvent carries a stock decrement that failed during
// settlement and must be replayed by the reconciliation worker.
type StockReconcileEvent struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Delta       decimal.Decimal `json:"delta"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	Notes       string          `json:"notes,omitempty"`
}

// LoyaltyReconcileEvent carries a customer point/spend mutation that failed
// during settlement.
type LoyaltyReconcileEvent struct {
	CustomerID    uuid.UUID `json:"customer_id"`
	PointsDelta   int64     `json:"points_delta"`
	SpendDelta    int64     `json:"spend_delta"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

// DecodeEnvelope unwraps the stored payload envelope.
func DecodeEnvelope(raw json.RawMessage) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	return envelope, nil
}

// DecodeStockReconcile parses the inner data of a stock reconcile envelope.
func DecodeStockReconcile(raw json.RawMessage) (StockReconcileEvent, error) {
	envelope, err := DecodeEnvelope(raw)
	if err != nil {
		return StockReconcileEvent{}, err
	}
	var event StockReconcileEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return StockReconcileEvent{}, fmt.Errorf("decode stock reconcile event: %w", err)
	}
	return event, nil
}

// DecodeLoyaltyReconcile parses the inner data of a loyalty reconcile envelope.
func DecodeLoyaltyReconcile(raw json.RawMessage) (LoyaltyReconcileEvent, error) {
	envelope, err := DecodeEnvelope(raw)
	if err != nil {
		return LoyaltyReconcileEvent{}, err
	}
	var event LoyaltyReconcileEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return LoyaltyReconcileEvent{}, fmt.Errorf("decode loyalty reconcile event: %w", err)
	}
	return event, nil
}
