package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Form field names accepted by UpdateField.
const (
	FieldAddressTo = "addressTo"
	FieldAmount    = "amount"
	FieldKeyword   = "keyword"
	FieldMessage   = "message"
)

type TransferFormData struct {
	AddressTo string `json:"addressTo"`
	Amount    string `json:"amount"`
	Keyword   string `json:"keyword"`
	Message   string `json:"message"`
}

// TransferRecord is a transfer as read back from the ledger contract.
type TransferRecord struct {
	AddressFrom string    `json:"addressFrom"`
	AddressTo   string    `json:"addressTo"`
	Timestamp   string    `json:"timestamp"`
	Time        time.Time `json:"-"`
	Message     string    `json:"message"`
	Keyword     string    `json:"keyword"`
	Amount      string    `json:"amount"`
	BaseUnits   *big.Int  `json:"-"`
}

type TransferReceipt struct {
	ID           string         `json:"id"`
	From         common.Address `json:"from"`
	To           common.Address `json:"to"`
	BaseUnits    *big.Int       `json:"baseUnits"`
	ValueTxHash  common.Hash    `json:"valueTxHash"`
	RecordTxHash common.Hash    `json:"recordTxHash"`
	BlockNumber  uint64         `json:"blockNumber"`
	Count        int64          `json:"count"`
}

type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateConfirming SubmissionState = "confirming"
	StateFailed     SubmissionState = "failed"
)

type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionValueSent  SubmissionStatus = "value_sent"
	SubmissionRecorded   SubmissionStatus = "recorded"
	SubmissionUnrecorded SubmissionStatus = "unrecorded"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the journal entry of one submit attempt. A submission left
// unrecorded moved value without a ledger record and needs reconciliation.
type Submission struct {
	ID           string           `json:"id"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	Amount       string           `json:"amount"`
	Message      string           `json:"message"`
	Keyword      string           `json:"keyword"`
	Status       SubmissionStatus `json:"status"`
	ValueTxHash  string           `json:"valueTxHash,omitempty"`
	RecordTxHash string           `json:"recordTxHash,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}
