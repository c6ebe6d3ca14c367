// Package transfer runs the submission workflow: sign the value transfer,
// append the ledger record, wait for it to be mined, refresh derived state.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"transfer-dapp-api/internal/fault"
	"transfer-dapp-api/internal/ledger"
	"transfer-dapp-api/internal/metrics"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/notify"
	"transfer-dapp-api/internal/units"
	"transfer-dapp-api/internal/wallet"
)

const (
	AlertInstall        = "Please Install Metamask"
	AlertInstallConnect = "Please Install and connect Metamask"

	// DisplayLayout renders ledger timestamps for the view.
	DisplayLayout = "1/2/2006, 3:04:05 PM"
)

var ErrUnknownField = errors.New("unknown form field")

type Session interface {
	Wallet() wallet.Wallet
	CurrentAccount() (common.Address, bool)
	CheckExistingConnection(ctx context.Context) (common.Address, bool, error)
}

type Ledger interface {
	AppendRecord(ctx context.Context, req ledger.AppendRequest) (ledger.PendingTx, error)
	AllRecords(ctx context.Context) ([]ledger.Record, error)
	RecordCount(ctx context.Context) (*big.Int, error)
}

type CountCache interface {
	Load() (int64, bool, error)
	Store(count int64) error
}

type Journal interface {
	Save(ctx context.Context, sub model.Submission) error
	Unreconciled(ctx context.Context) ([]model.Submission, error)
}

type Config struct {
	// ConfirmTimeout bounds the receipt wait; zero waits until ctx is done.
	ConfirmTimeout time.Duration
	Location       *time.Location
}

type Deps struct {
	Session Session
	Ledger  Ledger
	Cache   CountCache
	Journal Journal
	Alerts  notify.Alerter
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// State is a copy of everything the view renders.
type State struct {
	Account   string                 `json:"account"`
	Connected bool                   `json:"connected"`
	Form      model.TransferFormData `json:"form"`
	Loading   bool                   `json:"loading"`
	State     model.SubmissionState  `json:"state"`
	Transfers []model.TransferRecord `json:"transfers"`
	Count     int64                  `json:"count"`
	CountSet  bool                   `json:"countSet"`
	LastError string                 `json:"lastError,omitempty"`
	LastKind  fault.Kind             `json:"lastKind,omitempty"`
}

type Workflow struct {
	session Session
	ledger  Ledger
	cache   CountCache
	journal Journal
	alerts  notify.Alerter
	metrics *metrics.Metrics
	logger  zerolog.Logger
	cfg     Config

	inFlight atomic.Bool

	mu        sync.RWMutex
	form      model.TransferFormData
	state     model.SubmissionState
	loading   bool
	transfers []model.TransferRecord
	count     int64
	countSet  bool
	lastErr   *fault.Fault
}

func New(deps Deps, cfg Config) *Workflow {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	w := &Workflow{
		session:   deps.Session,
		ledger:    deps.Ledger,
		cache:     deps.Cache,
		journal:   deps.Journal,
		alerts:    deps.Alerts,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		cfg:       cfg,
		state:     model.StateIdle,
		transfers: []model.TransferRecord{},
	}
	if count, ok, err := w.cache.Load(); err == nil && ok {
		w.count, w.countSet = count, true
	}
	return w
}

// Init checks for an already connected account and refreshes the cached
// count, as the view does on load.
func (w *Workflow) Init(ctx context.Context) {
	if _, _, err := w.session.CheckExistingConnection(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("No existing wallet connection")
	}
	if _, err := w.RefreshCount(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("Transfer count not refreshed")
	}
}

func (w *Workflow) UpdateField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch name {
	case model.FieldAddressTo:
		w.form.AddressTo = value
	case model.FieldAmount:
		w.form.Amount = value
	case model.FieldKeyword:
		w.form.Keyword = value
	case model.FieldMessage:
		w.form.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func (w *Workflow) SetForm(form model.TransferFormData) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = form
}

func (w *Workflow) ResetForm() {
	w.SetForm(model.TransferFormData{})
}

func (w *Workflow) Form() model.TransferFormData {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.form
}

func (w *Workflow) Snapshot() State {
	account, connected := w.session.CurrentAccount()

	w.mu.RLock()
	defer w.mu.RUnlock()
	s := State{
		Connected: connected,
		Form:      w.form,
		Loading:   w.loading,
		State:     w.state,
		Transfers: append([]model.TransferRecord(nil), w.transfers...),
		Count:     w.count,
		CountSet:  w.countSet,
	}
	if connected {
		s.Account = account.Hex()
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.UserMessage()
		s.LastKind = w.lastErr.Kind
	}
	return s
}

func (w *Workflow) Unreconciled(ctx context.Context) ([]model.Submission, error) {
	subs, err := w.journal.Unreconciled(ctx)
	if err != nil {
		return nil, fault.New(fault.ReadFailure, "transfer.Unreconciled", err)
	}
	return subs, nil
}

// LoadHistory reads every ledger record in contract order. Failures are
// logged and yield an empty sequence.
func (w *Workflow) LoadHistory(ctx context.Context) []model.TransferRecord {
	if w.session.Wallet() == nil {
		w.alerts.Alert(AlertInstallConnect)
		return []model.TransferRecord{}
	}

	records, err := w.ledger.AllRecords(ctx)
	if err != nil {
		f := fault.New(fault.ReadFailure, "transfer.LoadHistory", err)
		w.logger.Error().Err(f).Msg("Failed to load transfer history")
		return []model.TransferRecord{}
	}

	out := make([]model.TransferRecord, 0, len(records))
	for _, r := range records {
		out = append(out, w.toRecord(r))
	}

	w.mu.Lock()
	w.transfers = out
	w.mu.Unlock()

	w.metrics.History(len(out))
	w.logger.Debug().Int("records", len(out)).Msg("Transfer history loaded")
	return append([]model.TransferRecord(nil), out...)
}

func (w *Workflow) toRecord(r ledger.Record) model.TransferRecord {
	var (
		ts      time.Time
		display string
	)
	if r.Timestamp != nil && r.Timestamp.IsInt64() {
		ts = time.Unix(r.Timestamp.Int64(), 0).In(w.cfg.Location)
		display = ts.Format(DisplayLayout)
	}
	return model.TransferRecord{
		AddressFrom: r.Sender.Hex(),
		AddressTo:   r.Receiver.Hex(),
		Timestamp:   display,
		Time:        ts,
		Message:     r.Message,
		Keyword:     r.Keyword,
		Amount:      units.FormatAmount(r.Amount),
		BaseUnits:   r.Amount,
	}
}

// RefreshCount reads the ledger count and caches it. On failure the stale
// count is returned with the fault.
func (w *Workflow) RefreshCount(ctx context.Context) (int64, error) {
	const op = "transfer.RefreshCount"
	n, err := w.ledger.RecordCount(ctx)
	if err == nil && (n == nil || !n.IsInt64()) {
		err = fmt.Errorf("count %v out of range", n)
	}
	if err != nil {
		f := fault.New(fault.ReadFailure, op, err)
		w.logger.Error().Err(f).Msg("Failed to read transfer count")
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.count, f
	}

	count := n.Int64()
	if err := w.cache.Store(count); err != nil {
		w.logger.Warn().Err(err).Msg("Transfer count not persisted")
	}

	w.mu.Lock()
	w.count, w.countSet = count, true
	w.mu.Unlock()

	w.metrics.Count(count)
	return count, nil
}

// Submit sends the form's transfer and records it on the ledger. Only one
// submission runs at a time.
func (w *Workflow) Submit(ctx context.Context) (*model.TransferReceipt, error) {
	return w.submit(ctx, nil)
}

// SubmitForm submits form instead of the current one. The form is stored
// only once the submission passes its preconditions.
func (w *Workflow) SubmitForm(ctx context.Context, form model.TransferFormData) (*model.TransferReceipt, error) {
	return w.submit(ctx, &form)
}

func (w *Workflow) submit(ctx context.Context, override *model.TransferFormData) (*model.TransferReceipt, error) {
	const op = "transfer.Submit"
	if !w.inFlight.CompareAndSwap(false, true) {
		f := fault.New(fault.SubmissionInFlight, op, fault.ErrInFlight)
		return nil, w.reject(f, f.UserMessage())
	}
	defer w.inFlight.Store(false)

	wal := w.session.Wallet()
	if wal == nil {
		return nil, w.reject(fault.New(fault.WalletUnavailable, op, fault.ErrNoWallet), AlertInstall)
	}
	from, ok := w.session.CurrentAccount()
	if !ok {
		f := fault.New(fault.WalletUnavailable, op, fault.ErrNoAccount)
		return nil, w.reject(f, f.UserMessage())
	}

	form := w.Form()
	if override != nil {
		form = *override
	}
	amount, err := units.ParseAmount(form.Amount)
	if err != nil {
		f := fault.New(fault.InvalidAmount, op, err)
		return nil, w.reject(f, f.UserMessage())
	}
	if !common.IsHexAddress(form.AddressTo) {
		f := fault.New(fault.InvalidRecipient, op, fmt.Errorf("%q is not an address", form.AddressTo))
		return nil, w.reject(f, f.UserMessage())
	}
	to := common.HexToAddress(form.AddressTo)
	if override != nil {
		w.SetForm(form)
	}

	sub := model.Submission{
		ID:      uuid.New().String(),
		From:    from.Hex(),
		To:      to.Hex(),
		Amount:  amount.String(),
		Message: form.Message,
		Keyword: form.Keyword,
		Status:  model.SubmissionPending,
	}
	w.save(ctx, sub)
	w.setState(model.StateSubmitting, true, nil)

	valueHash, err := wal.SendTransaction(ctx, wallet.NativeTransfer(from, to, amount))
	if err != nil {
		sub.Status = model.SubmissionFailed
		return nil, w.fail(ctx, sub, fault.New(fault.SubmissionFailure, op, err))
	}
	sub.Status, sub.ValueTxHash = model.SubmissionValueSent, valueHash.Hex()
	w.save(ctx, sub)

	// The value transfer above is already broadcast; from here on a failure
	// leaves the submission unrecorded.
	pending, err := w.ledger.AppendRecord(ctx, ledger.AppendRequest{
		From:     from,
		Receiver: to,
		Amount:   amount,
		Message:  form.Message,
		Keyword:  form.Keyword,
	})
	if err != nil {
		sub.Status = model.SubmissionUnrecorded
		return nil, w.fail(ctx, sub, fault.New(fault.SubmissionFailure, op, err))
	}
	sub.RecordTxHash = pending.Hash().Hex()
	w.logger.Info().Str("submission", sub.ID).Str("tx", sub.RecordTxHash).Msg("Loading")

	waitCtx := ctx
	if w.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, w.cfg.ConfirmTimeout)
		defer cancel()
	}
	started := time.Now()
	receipt, err := pending.Wait(waitCtx)
	if err != nil {
		sub.Status = model.SubmissionUnrecorded
		return nil, w.fail(ctx, sub, fault.New(fault.SubmissionFailure, op, err))
	}
	w.metrics.Confirmed(time.Since(started))

	w.setState(model.StateConfirming, true, nil)
	w.logger.Info().Str("submission", sub.ID).Str("tx", sub.RecordTxHash).Msg("Success")
	sub.Status = model.SubmissionRecorded
	w.save(ctx, sub)

	count, err := w.RefreshCount(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Str("submission", sub.ID).Msg("Count refresh after submit failed")
	}
	w.LoadHistory(ctx)
	w.setState(model.StateIdle, false, nil)
	w.metrics.Submission("ok")

	out := &model.TransferReceipt{
		ID:           sub.ID,
		From:         from,
		To:           to,
		BaseUnits:    amount,
		ValueTxHash:  valueHash,
		RecordTxHash: pending.Hash(),
		Count:        count,
	}
	if receipt != nil && receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

// reject reports a precondition fault without touching workflow state.
func (w *Workflow) reject(f *fault.Fault, alert string) error {
	w.logger.Warn().Err(f).Msg("Submission rejected")
	w.alerts.Alert(alert)
	w.metrics.Submission(string(f.Kind))
	return f
}

func (w *Workflow) fail(ctx context.Context, sub model.Submission, f *fault.Fault) error {
	sub.Reason = f.Err.Error()
	w.save(ctx, sub)
	w.setState(model.StateFailed, false, f)

	ev := w.logger.Error().Err(f).Str("submission", sub.ID).Str("status", string(sub.Status))
	if sub.ValueTxHash != "" {
		ev = ev.Str("value_tx", sub.ValueTxHash)
	}
	ev.Msg("Submission failed")
	w.alerts.Alert(f.UserMessage())
	w.metrics.Submission(string(sub.Status))
	return f
}

func (w *Workflow) save(ctx context.Context, sub model.Submission) {
	if err := w.journal.Save(context.WithoutCancel(ctx), sub); err != nil {
		w.logger.Error().Err(err).Str("submission", sub.ID).Str("status", string(sub.Status)).Msg("Failed to journal submission")
	}
}

func (w *Workflow) setState(state model.SubmissionState, loading bool, f *fault.Fault) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	w.loading = loading
	w.lastErr = f
}
