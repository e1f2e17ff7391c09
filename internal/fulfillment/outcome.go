package fulfillment

import "github.com/stockline/warehouse-api/internal/types"

// Reason classifies why a fulfillment attempt was rejected. Every reason maps
// to a 409 Conflict at the HTTP boundary; infrastructure failures are reported
// as errors, not reasons.
type Reason string

const (
	// Pipeline rejections, ordered by the check that produces them.
	ReasonProductOrWarehouseInvalid Reason = "PRODUCT_OR_WAREHOUSE_INVALID"
	ReasonOrderNotFound             Reason = "ORDER_NOT_FOUND"
	ReasonAlreadyAllocated          Reason = "ALREADY_ALLOCATED"
	ReasonStaleTimestamp            Reason = "STALE_OR_INVALID_TIMESTAMP"

	// Commit-phase rejection: the conditional update found no unfulfilled
	// order, typically because a concurrent request won the race.
	ReasonNoMatchingOrder Reason = "NO_MATCHING_ORDER_TO_FULFILL"

	// Procedure-path only: the stored procedure rejected the product id.
	ReasonInvalidProduct Reason = "INVALID_PRODUCT_ID"
)

// Message returns the human-readable text sent with the conflict response.
func (r Reason) Message() string {
	switch r {
	case ReasonProductOrWarehouseInvalid:
		return "Product or warehouse does not exist, or amount is not positive"
	case ReasonOrderNotFound:
		return "No order matches the requested product and amount"
	case ReasonAlreadyAllocated:
		return "An allocation already exists for this warehouse and product"
	case ReasonStaleTimestamp:
		return "Request timestamp does not postdate the order"
	case ReasonNoMatchingOrder:
		return "No order to fulfill with the data provided"
	case ReasonInvalidProduct:
		return "Invalid product id"
	default:
		return "Request rejected"
	}
}

// Outcome is the tagged result of one fulfillment attempt. A created outcome
// carries the committed allocation; a rejected one carries only the reason.
type Outcome struct {
	Allocation *types.Allocation
	Reason     Reason
}

// Created reports whether the attempt committed an allocation.
func (o Outcome) Created() bool {
	return o.Allocation != nil
}

// Rejected builds a rejection outcome for the given reason.
func Rejected(reason Reason) Outcome {
	return Outcome{Reason: reason}
}
