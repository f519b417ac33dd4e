package provision

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/payment"
	"github.com/mozsignals/mozsignals-api/internal/store"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	TransferFunc     func(phone string, amount float64, description string) (payment.TransferResponse, error)
	TransactionsFunc func() ([]payment.Transaction, error)

	transferCalls     int
	transactionsCalls int
	lastDescription   string
}

func (g *fakeGateway) Transfer(phone string, amount float64, description string) (payment.TransferResponse, error) {
	g.transferCalls++
	g.lastDescription = description
	return g.TransferFunc(phone, amount, description)
}

func (g *fakeGateway) Transactions() ([]payment.Transaction, error) {
	g.transactionsCalls++
	return g.TransactionsFunc()
}

func ackSuccess(id string) func(string, float64, string) (payment.TransferResponse, error) {
	return func(string, float64, string) (payment.TransferResponse, error) {
		var resp payment.TransferResponse
		resp.Status = "success"
		resp.Data.ID = id
		return resp, nil
	}
}

func validInput() Input {
	return Input{
		Username:        "ana",
		Email:           "ana@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
		PhoneNumber:     "841234567",
	}
}

func newWorkflow(gw *fakeGateway, creds credentials.Service, accounts store.AccountStore) *Workflow {
	return &Workflow{
		Gateway:      gw,
		Credentials:  creds,
		Accounts:     accounts,
		Price:        350,
		AccessDays:   2,
		ConfirmWait:  3 * time.Second,
		Sleep:        func(time.Duration) {},
		Now:          func() time.Time { return t0 },
		NewReference: func() string { return "ref-0001" },
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("841234567"))
	assert.True(t, ValidatePhone("851234567"))
	assert.False(t, ValidatePhone("901234567")) // wrong prefix
	assert.False(t, ValidatePhone("8412345"))   // wrong length
	assert.False(t, ValidatePhone("84123456789"))
	assert.False(t, ValidatePhone("84a234567"))
}

func TestRunRejectsBadInputBeforeAnyNetworkCall(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-1")}
	w := newWorkflow(gw, credentials.NewFake(), store.NewMemoryAccounts())

	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"bad prefix", func(in *Input) { in.PhoneNumber = "901234567" }, "phoneNumber"},
		{"too short", func(in *Input) { in.PhoneNumber = "8412345" }, "phoneNumber"},
		{"short password", func(in *Input) { in.Password = "short"; in.ConfirmPassword = "short" }, "password"},
		{"mismatched confirmation", func(in *Input) { in.ConfirmPassword = "different1" }, "confirmPassword"},
		{"missing username", func(in *Input) { in.Username = " " }, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := w.Run(in)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.Zero(t, gw.transferCalls, "validation errors must not reach the gateway")
}

func TestRunProvisionsOnConfirmedTransfer(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-1")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		return []payment.Transaction{
			{ID: "tx-1", NumberPhone: "841234567", Amount: 350, Type: "transfer",
				Status: "complete", Description: gw.lastDescription},
		}, nil
	}
	creds := credentials.NewFake()
	accounts := store.NewMemoryAccounts()
	w := newWorkflow(gw, creds, accounts)

	result, err := w.Run(validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusProvisioned, result.Status)
	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, 1, gw.transactionsCalls, "exactly one status lookup")
	assert.Contains(t, gw.lastDescription, "ref-0001")

	acc, found, err := accounts.Get(result.AccountID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ActivationActive, acc.Activation)
	assert.Equal(t, 2, acc.GrantedDays)
	assert.Equal(t, t0.Add(48*time.Hour), acc.ExpiresAt)
	assert.Equal(t, float64(350), acc.PaymentAmount)

	// Credential really exists.
	_, err = creds.Authenticate("ana@example.com", "supersecret")
	assert.NoError(t, err)
}

func TestRunAbortsWhenInitiationRejected(t *testing.T) {
	gw := &fakeGateway{
		TransferFunc: func(string, float64, string) (payment.TransferResponse, error) {
			return payment.TransferResponse{}, &payment.GatewayError{StatusCode: 422, Message: "wallet suspended"}
		},
	}
	accounts := store.NewMemoryAccounts()
	w := newWorkflow(gw, credentials.NewFake(), accounts)

	_, err := w.Run(validInput())

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 1, gw.transferCalls, "initiation is never retried")
	assert.Zero(t, gw.transactionsCalls)

	all, _ := accounts.List("")
	assert.Empty(t, all)
}

func TestRunPendingWhenNoMatchingTransaction(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-9")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		// Someone else's transfer only.
		return []payment.Transaction{
			{ID: "tx-5", NumberPhone: "859999999", Amount: 350, Type: "transfer", Status: "complete"},
		}, nil
	}
	creds := credentials.NewFake()
	accounts := store.NewMemoryAccounts()
	w := newWorkflow(gw, creds, accounts)

	result, err := w.Run(validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)

	// No credential, no account: the subscriber retries the whole flow.
	_, authErr := creds.Authenticate("ana@example.com", "supersecret")
	assert.ErrorIs(t, authErr, credentials.ErrInvalidCredentials)
	all, _ := accounts.List("")
	assert.Empty(t, all)
}

func TestRunFailedTransactionIsGatewayError(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-2")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		return []payment.Transaction{
			{ID: "tx-2", NumberPhone: "841234567", Amount: 350, Type: "transfer",
				Status: "failed", Description: gw.lastDescription},
		}, nil
	}
	w := newWorkflow(gw, credentials.NewFake(), store.NewMemoryAccounts())

	_, err := w.Run(validInput())

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestRunMatchesByReferenceOverPhoneAndAmount(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-ours")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		return []payment.Transaction{
			// A concurrent transfer for the same phone and amount that
			// failed; attribute matching alone would pick this one up.
			{ID: "tx-other", NumberPhone: "841234567", Amount: 350, Type: "transfer", Status: "failed"},
			{ID: "tx-ours", NumberPhone: "841234567", Amount: 350, Type: "transfer",
				Status: "complete", Description: gw.lastDescription},
		}, nil
	}
	w := newWorkflow(gw, credentials.NewFake(), store.NewMemoryAccounts())

	result, err := w.Run(validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusProvisioned, result.Status)
	assert.Equal(t, "tx-ours", result.TransactionID)
}

func TestRunReconciliationErrorWhenCredentialCreationFails(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-3")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		return []payment.Transaction{
			{ID: "tx-3", NumberPhone: "841234567", Amount: 350, Type: "transfer",
				Status: "complete", Description: gw.lastDescription},
		}, nil
	}
	creds := credentials.NewFake()
	creds.CreateFunc = func(string, string) (int64, error) {
		return 0, errors.New("auth service unavailable")
	}
	accounts := store.NewMemoryAccounts()
	w := newWorkflow(gw, creds, accounts)

	_, err := w.Run(validInput())

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "tx-3", recErr.TransactionID)

	// Money moved but NO account record may exist.
	all, listErr := accounts.List("")
	require.NoError(t, listErr)
	assert.Empty(t, all)
}

func TestRunPendingWhenLookupTransportFails(t *testing.T) {
	gw := &fakeGateway{TransferFunc: ackSuccess("tx-4")}
	gw.TransactionsFunc = func() ([]payment.Transaction, error) {
		return nil, &payment.GatewayError{Message: "timeout"}
	}
	w := newWorkflow(gw, credentials.NewFake(), store.NewMemoryAccounts())

	result, err := w.Run(validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)
}
