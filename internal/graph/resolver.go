package graph

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"transfer-dapp-api/internal/fault"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/notify"
	"transfer-dapp-api/internal/transfer"
	"transfer-dapp-api/internal/units"
)

type Connector interface {
	Connect(ctx context.Context) (common.Address, error)
}

type Resolver struct {
	Session  Connector
	Workflow *transfer.Workflow
	AlertLog *notify.Log
}

type SubmitArgs struct {
	AddressTo *string `json:"addressTo"`
	Amount    *string `json:"amount"`
	Keyword   *string `json:"keyword"`
	Message   *string `json:"message"`
}

type StateView struct {
	Account   string                 `json:"account"`
	Connected bool                   `json:"connected"`
	Loading   bool                   `json:"loading"`
	State     string                 `json:"state"`
	Count     int64                  `json:"count"`
	CountSet  bool                   `json:"countSet"`
	LastError string                 `json:"lastError"`
	LastKind  string                 `json:"lastKind"`
	Form      model.TransferFormData `json:"form"`
	Transfers []model.TransferRecord `json:"transfers"`
}

type ReceiptView struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Amount       string `json:"amount"`
	BaseUnits    string `json:"baseUnits"`
	ValueTxHash  string `json:"valueTxHash"`
	RecordTxHash string `json:"recordTxHash"`
	BlockNumber  int64  `json:"blockNumber"`
	Count        int64  `json:"count"`
}

// userError renders the generic message and carries the kind as an
// extension so clients can still tell faults apart.
type userError struct {
	f *fault.Fault
}

func (e userError) Error() string { return e.f.UserMessage() }

func (e userError) Extensions() map[string]interface{} {
	return map[string]interface{}{"kind": string(e.f.Kind)}
}

func toUserError(err error) error {
	var f *fault.Fault
	if errors.As(err, &f) {
		return userError{f: f}
	}
	return err
}

func (r *Resolver) State() *StateView {
	s := r.Workflow.Snapshot()
	return &StateView{
		Account:   s.Account,
		Connected: s.Connected,
		Loading:   s.Loading,
		State:     string(s.State),
		Count:     s.Count,
		CountSet:  s.CountSet,
		LastError: s.LastError,
		LastKind:  string(s.LastKind),
		Form:      s.Form,
		Transfers: s.Transfers,
	}
}

func (r *Resolver) Transfers() []model.TransferRecord {
	return r.Workflow.Snapshot().Transfers
}

func (r *Resolver) Alerts() []notify.Alert {
	if r.AlertLog == nil {
		return nil
	}
	return r.AlertLog.Recent()
}

func (r *Resolver) Unreconciled(ctx context.Context) ([]model.Submission, error) {
	subs, err := r.Workflow.Unreconciled(ctx)
	if err != nil {
		return nil, toUserError(err)
	}
	return subs, nil
}

func (r *Resolver) ConnectWallet(ctx context.Context) (*StateView, error) {
	if _, err := r.Session.Connect(ctx); err != nil {
		return nil, toUserError(err)
	}
	return r.State(), nil
}

func (r *Resolver) UpdateField(name, value string) (model.TransferFormData, error) {
	if err := r.Workflow.UpdateField(name, value); err != nil {
		return model.TransferFormData{}, err
	}
	return r.Workflow.Form(), nil
}

func (r *Resolver) ResetForm() model.TransferFormData {
	r.Workflow.ResetForm()
	return r.Workflow.Form()
}

// Refresh re-reads history and the count from the ledger.
func (r *Resolver) Refresh(ctx context.Context) *StateView {
	r.Workflow.LoadHistory(ctx)
	r.Workflow.RefreshCount(ctx)
	return r.State()
}

func (r *Resolver) SubmitTransfer(ctx context.Context, args SubmitArgs) (*ReceiptView, error) {
	form := r.Workflow.Form()
	if args.AddressTo != nil {
		form.AddressTo = *args.AddressTo
	}
	if args.Amount != nil {
		form.Amount = *args.Amount
	}
	if args.Keyword != nil {
		form.Keyword = *args.Keyword
	}
	if args.Message != nil {
		form.Message = *args.Message
	}
	receipt, err := r.Workflow.SubmitForm(ctx, form)
	if err != nil {
		return nil, toUserError(err)
	}
	return &ReceiptView{
		ID:           receipt.ID,
		From:         receipt.From.Hex(),
		To:           receipt.To.Hex(),
		Amount:       units.FormatAmount(receipt.BaseUnits),
		BaseUnits:    receipt.BaseUnits.String(),
		ValueTxHash:  receipt.ValueTxHash.Hex(),
		RecordTxHash: receipt.RecordTxHash.Hex(),
		BlockNumber:  int64(receipt.BlockNumber),
		Count:        receipt.Count,
	}, nil
}
