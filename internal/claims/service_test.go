package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/claims-portal/internal/db"
	"github.com/ukydev/claims-portal/internal/models"
	"github.com/ukydev/claims-portal/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockClaimCollection is a mock implementation of db.ClaimCollection
type MockClaimCollection struct {
	mock.Mock
}

func (m *MockClaimCollection) FindClaims(ctx context.Context) ([]models.Claim, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Claim), args.Error(1)
}

func (m *MockClaimCollection) FindClaimByID(ctx context.Context, id string) (*models.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

func (m *MockClaimCollection) SaveClaim(ctx context.Context, claim *models.Claim, expect models.PaymentStatus) error {
	args := m.Called(ctx, claim, expect)
	return args.Error(0)
}

func (m *MockClaimCollection) InsertClaim(ctx context.Context, claim *models.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimCollection) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PaymentSubmitted(ctx context.Context, event notify.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC)

func seededClaim() *models.Claim {
	return &models.Claim{
		ID:          primitive.NewObjectID(),
		ClaimNumber: "CL-2467802",
		Type:        "Mechanical",
		Customer:    models.Customer{Name: "Devon Lane"},
		Totals:      models.Totals{Total: 4376.25},
		Status:      "authorized",
		StatusHistory: models.StatusHistory{
			{Status: "authorized", Amount: 4376.25, Timestamp: time.Date(2025, 4, 15, 14, 30, 0, 0, time.UTC), Color: "teal"},
			{Status: "pending", Amount: 4376.25, Timestamp: time.Date(2025, 4, 12, 9, 15, 0, 0, time.UTC), Color: "orange"},
		},
		Attachments: []string{},
		Payment:     models.PaymentRecord{Status: models.PaymentNotSubmitted},
	}
}

func pdfUpload(size int, name string) *InvoiceUpload {
	data := make([]byte, size)
	copy(data, "%PDF-1.7\n")
	return &InvoiceUpload{Data: data, ContentType: "application/pdf", FileName: name}
}

func cloneClaim(c *models.Claim) *models.Claim {
	out := *c
	if c.StatusHistory != nil {
		out.StatusHistory = make(models.StatusHistory, len(c.StatusHistory))
		copy(out.StatusHistory, c.StatusHistory)
	}
	return &out
}

func newTestService(store db.ClaimCollection, opts ...Option) *Service {
	return NewService(store, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestSubmitPayment_Success(t *testing.T) {
	store := new(MockClaimCollection)
	claim := seededClaim()
	id := claim.ID.Hex()

	var saved *models.Claim
	store.On("FindClaimByID", mock.Anything, id).Return(claim, nil)
	store.On("SaveClaim", mock.Anything, mock.AnythingOfType("*models.Claim"), models.PaymentNotSubmitted).
		Run(func(args mock.Arguments) { saved = cloneClaim(args.Get(1).(*models.Claim)) }).
		Return(nil)

	svc := newTestService(store)
	upload := pdfUpload(10*1024, "  invoice-april.pdf \n")

	got, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
		ClaimID:       id,
		PaymentMethod: "wire",
		File:          upload,
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "paid", saved.StatusHistory[0].Status)
	assert.Equal(t, PaidColor, saved.StatusHistory[0].Color)
	assert.Equal(t, fixedNow, saved.StatusHistory[0].Timestamp)
	assert.Equal(t, 4376.25, saved.StatusHistory[0].Amount)
	assert.Equal(t, "pending", saved.StatusHistory[1].Status, "other entries stay untouched")
	assert.Equal(t, "orange", saved.StatusHistory[1].Color)
	assert.Len(t, saved.StatusHistory, 2, "no entry is appended")

	assert.Equal(t, models.PaymentPaid, saved.Payment.Status)
	assert.Equal(t, models.MethodWire, saved.Payment.Method)
	require.NotNil(t, saved.Payment.SubmittedAt)
	assert.Equal(t, fixedNow, *saved.Payment.SubmittedAt)
	require.NotNil(t, saved.Payment.File)
	assert.Equal(t, "invoice-april.pdf", saved.Payment.File.FileName)
	assert.Equal(t, "application/pdf", saved.Payment.File.ContentType)
	assert.Equal(t, upload.Data, saved.Payment.File.Data)
	assert.Equal(t, "paid", saved.Status)

	assert.Equal(t, models.PaymentPaid, got.Payment.Status)
	store.AssertExpectations(t)
}

func TestSubmitPayment_CaseInsensitiveAuthorizedFirstInStorageOrder(t *testing.T) {
	store := new(MockClaimCollection)
	claim := seededClaim()
	claim.StatusHistory = models.StatusHistory{
		{Status: "pending", Amount: 100, Timestamp: time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)},
		{Status: "AUTHORIZED", Amount: 200, Timestamp: time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)},
		{Status: "authorized", Amount: 300, Timestamp: time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)},
	}
	id := claim.ID.Hex()

	store.On("FindClaimByID", mock.Anything, id).Return(claim, nil)
	store.On("SaveClaim", mock.Anything, mock.Anything, models.PaymentNotSubmitted).Return(nil)

	svc := newTestService(store)
	got, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
		ClaimID: id, PaymentMethod: "ach", File: pdfUpload(64, "a.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", got.StatusHistory[0].Status)
	assert.Equal(t, "paid", got.StatusHistory[1].Status)
	assert.Equal(t, "authorized", got.StatusHistory[2].Status)
	assert.Equal(t, 1, got.StatusHistory.Count(models.StatusPaid))
}

func TestSubmitPayment_NotAuthorized(t *testing.T) {
	histories := map[string]models.StatusHistory{
		"empty history": {},
		"pending only":  {{Status: "pending", Amount: 10}},
		"draft and paid": {
			{Status: "draft"},
			{Status: "Paid", Amount: 5},
		},
	}

	for name, history := range histories {
		t.Run(name, func(t *testing.T) {
			store := new(MockClaimCollection)
			claim := seededClaim()
			claim.StatusHistory = history
			before := cloneClaim(claim)

			store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)

			svc := newTestService(store)
			_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
				ClaimID: claim.ID.Hex(), PaymentMethod: "wire", File: pdfUpload(64, "a.pdf"),
			})
			assert.ErrorIs(t, err, ErrNotAuthorized)
			assert.Equal(t, before, claim)
			store.AssertNotCalled(t, "SaveClaim", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPayment_AlreadyPaid(t *testing.T) {
	store := new(MockClaimCollection)
	claim := seededClaim()
	submitted := fixedNow.Add(-time.Hour)
	claim.Payment = models.PaymentRecord{
		Status:      models.PaymentPaid,
		Method:      models.MethodCheck,
		SubmittedAt: &submitted,
		File:        &models.InvoiceFile{Data: []byte("old"), ContentType: "image/png", FileName: "old.png"},
	}
	before := cloneClaim(claim)

	store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)

	svc := newTestService(store)
	for _, method := range []string{"wire", "ach", "check"} {
		_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
			ClaimID: claim.ID.Hex(), PaymentMethod: method, File: pdfUpload(64, "new.pdf"),
		})
		assert.ErrorIs(t, err, ErrAlreadyPaid)
	}
	assert.Equal(t, before, claim)
	store.AssertNotCalled(t, "SaveClaim", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPayment_InputValidation(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name string
		req  SubmitPaymentRequest
		want error
	}{
		{"missing id", SubmitPaymentRequest{PaymentMethod: "wire", File: pdfUpload(10, "a.pdf")}, ErrMissingClaimID},
		{"missing file", SubmitPaymentRequest{ClaimID: id, PaymentMethod: "wire"}, ErrMissingInvoiceFile},
		{"empty file", SubmitPaymentRequest{ClaimID: id, PaymentMethod: "wire", File: &InvoiceUpload{FileName: "a.pdf"}}, ErrMissingInvoiceFile},
		{"bitcoin", SubmitPaymentRequest{ClaimID: id, PaymentMethod: "bitcoin", File: pdfUpload(10, "a.pdf")}, ErrInvalidPaymentMethod},
		{"bitcoin with bad id", SubmitPaymentRequest{ClaimID: "nope", PaymentMethod: "bitcoin", File: pdfUpload(10, "a.pdf")}, ErrInvalidPaymentMethod},
		{"upper case method", SubmitPaymentRequest{ClaimID: id, PaymentMethod: "WIRE", File: pdfUpload(10, "a.pdf")}, ErrInvalidPaymentMethod},
		{"empty method", SubmitPaymentRequest{ClaimID: id, File: pdfUpload(10, "a.pdf")}, ErrInvalidPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockClaimCollection)
			svc := newTestService(store)
			_, err := svc.SubmitPayment(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			store.AssertNotCalled(t, "FindClaimByID", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "SaveClaim", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPayment_LookupErrors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{"invalid id", db.ErrInvalidID, ErrInvalidIdentifier},
		{"not found", db.ErrClaimNotFound, ErrClaimNotFound},
		{"database down", errors.New("connection refused"), ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockClaimCollection)
			store.On("FindClaimByID", mock.Anything, "507f1f77bcf86cd799439011").Return(nil, tt.storeErr)

			svc := newTestService(store)
			_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
				ClaimID: "507f1f77bcf86cd799439011", PaymentMethod: "wire", File: pdfUpload(10, "a.pdf"),
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmitPayment_SaveErrors(t *testing.T) {
	tests := []struct {
		name    string
		saveErr error
		want    error
	}{
		{"concurrent submission won", db.ErrConflict, ErrAlreadyPaid},
		{"deleted meanwhile", db.ErrClaimNotFound, ErrClaimNotFound},
		{"write failed", errors.New("write concern error"), ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockClaimCollection)
			notifier := new(MockNotifier)
			claim := seededClaim()
			store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)
			store.On("SaveClaim", mock.Anything, mock.Anything, models.PaymentNotSubmitted).Return(tt.saveErr)

			svc := newTestService(store, WithNotifier(notifier))
			got, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
				ClaimID: claim.ID.Hex(), PaymentMethod: "check", File: pdfUpload(10, "a.pdf"),
			})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
			notifier.AssertNotCalled(t, "PaymentSubmitted", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPayment_PendingPaymentUsesPendingGuard(t *testing.T) {
	store := new(MockClaimCollection)
	claim := seededClaim()
	claim.Payment.Status = models.PaymentPending
	store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)
	store.On("SaveClaim", mock.Anything, mock.Anything, models.PaymentPending).Return(nil)

	svc := newTestService(store)
	_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
		ClaimID: claim.ID.Hex(), PaymentMethod: "wire", File: pdfUpload(10, "a.pdf"),
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSubmitPayment_Notifier(t *testing.T) {
	t.Run("receives event", func(t *testing.T) {
		store := new(MockClaimCollection)
		notifier := new(MockNotifier)
		claim := seededClaim()
		store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)
		store.On("SaveClaim", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		notifier.On("PaymentSubmitted", mock.Anything, notify.PaymentEvent{
			ClaimID:     claim.ID.Hex(),
			ClaimNumber: "CL-2467802",
			Method:      "wire",
			Amount:      4376.25,
			FileName:    "invoice.pdf",
			SubmittedAt: fixedNow,
		}).Return(nil)

		svc := newTestService(store, WithNotifier(notifier))
		_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
			ClaimID: claim.ID.Hex(), PaymentMethod: "wire", File: pdfUpload(10, "invoice.pdf"),
		})
		require.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("failure does not fail submission", func(t *testing.T) {
		store := new(MockClaimCollection)
		notifier := new(MockNotifier)
		claim := seededClaim()
		store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)
		store.On("SaveClaim", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		notifier.On("PaymentSubmitted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		svc := newTestService(store, WithNotifier(notifier))
		_, err := svc.SubmitPayment(context.Background(), SubmitPaymentRequest{
			ClaimID: claim.ID.Hex(), PaymentMethod: "wire", File: pdfUpload(10, "invoice.pdf"),
		})
		assert.NoError(t, err)
	})
}

func TestListAndGetClaim(t *testing.T) {
	store := new(MockClaimCollection)
	claim := seededClaim()
	store.On("FindClaims", mock.Anything).Return([]models.Claim{*claim}, nil)
	store.On("FindClaimByID", mock.Anything, claim.ID.Hex()).Return(claim, nil)
	store.On("FindClaimByID", mock.Anything, "not-a-valid-id").Return(nil, db.ErrInvalidID)

	svc := newTestService(store)

	all, err := svc.ListClaims(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got, err := svc.GetClaim(context.Background(), claim.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "CL-2467802", got.ClaimNumber)

	_, err = svc.GetClaim(context.Background(), "not-a-valid-id")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestListClaims_StoreError(t *testing.T) {
	store := new(MockClaimCollection)
	store.On("FindClaims", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := newTestService(store).ListClaims(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestGetInvoice(t *testing.T) {
	store := new(MockClaimCollection)
	paid := seededClaim()
	paid.Payment.File = &models.InvoiceFile{Data: []byte("%PDF"), ContentType: "application/pdf", FileName: "i.pdf"}
	unpaid := seededClaim()
	store.On("FindClaimByID", mock.Anything, paid.ID.Hex()).Return(paid, nil)
	store.On("FindClaimByID", mock.Anything, unpaid.ID.Hex()).Return(unpaid, nil)

	svc := newTestService(store)

	file, err := svc.GetInvoice(context.Background(), paid.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "i.pdf", file.FileName)

	_, err = svc.GetInvoice(context.Background(), unpaid.ID.Hex())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
