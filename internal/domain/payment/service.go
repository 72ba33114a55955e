// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/order"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Gateway resolves the final outcome of a payment attempt. The store
// runs without a PSP integration, so the default gateway trusts the
// outcome the customer attests after completing the transfer out of
// band.
type Gateway interface {
	Verify(ctx context.Context, attempt *Attempt, attested order.ConfirmOutcome) (order.ConfirmOutcome, error)
}

// AttestationGateway accepts the customer's attested outcome as-is
type AttestationGateway struct{}

// Verify returns the attested outcome unchanged
func (AttestationGateway) Verify(_ context.Context, _ *Attempt, attested order.ConfirmOutcome) (order.ConfirmOutcome, error) {
	return attested, nil
}

// Service handles payment attempts against orders
type Service struct {
	db           *gorm.DB
	config       *config.Config
	orderService *order.Service
	gateway      Gateway
	log          *logrus.Logger
}

// NewService creates a new payment service. gateway may be nil, in
// which case the attestation gateway is used.
func NewService(db *gorm.DB, cfg *config.Config, orderService *order.Service, gateway Gateway, log *logrus.Logger) *Service {
	if gateway == nil {
		gateway = AttestationGateway{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		db:           db,
		config:       cfg,
		orderService: orderService,
		gateway:      gateway,
		log:          log,
	}
}

// Initiate opens a payment attempt for an order and returns the
// instructions the customer needs to complete it. An order whose last
// payment failed is reopened first, so retrying is the same call.
func (s *Service) Initiate(ctx context.Context, orderID uint) (*Instructions, error) {
	o, err := s.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status == order.OrderStatusPaymentFailed {
		if o, err = s.orderService.ReopenForPayment(ctx, orderID); err != nil {
			return nil, err
		}
	}
	if o.Status != order.OrderStatusPendingPayment {
		return nil, apperrors.InvalidState("order %s is %s, payment cannot be initiated", o.OrderNumber, o.Status)
	}

	attempt := Attempt{
		OrderID:   o.ID,
		Reference: uuid.New().String(),
		Method:    o.PaymentMethod,
		Amount:    o.Total,
		Outcome:   OutcomeUnconfirmed,
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, apperrors.Storage(err, "failed to create payment attempt for order %d", orderID)
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"reference":    attempt.Reference,
		"method":       attempt.Method,
		"amount":       attempt.Amount,
	}).Info("Payment attempt opened")

	return s.buildInstructions(o, &attempt), nil
}

// Confirm applies the attested result of the latest payment attempt to
// the order. The order state flip is the source of truth; the attempt
// record is updated afterwards and a failure there is only logged.
func (s *Service) Confirm(ctx context.Context, orderID uint, attested order.ConfirmOutcome) (*order.Order, error) {
	if attested != order.ConfirmOutcomeCompleted && attested != order.ConfirmOutcomeFailed {
		return nil, apperrors.Validation("unknown payment outcome %q", attested)
	}

	attempt, err := s.latestAttempt(ctx, orderID)
	if err != nil {
		return nil, err
	}

	outcome := attested
	if attempt != nil {
		if outcome, err = s.gateway.Verify(ctx, attempt, attested); err != nil {
			return nil, err
		}
	}

	o, err := s.orderService.ConfirmPayment(ctx, orderID, outcome)
	if err != nil {
		return nil, err
	}

	if attempt != nil {
		attemptOutcome := OutcomeConfirmed
		if outcome == order.ConfirmOutcomeFailed {
			attemptOutcome = OutcomeFailed
		}
		if err := s.db.WithContext(ctx).Model(attempt).Update("outcome", attemptOutcome).Error; err != nil {
			s.log.WithError(err).WithField("reference", attempt.Reference).Warn("Failed to update payment attempt")
		}
	}

	return o, nil
}

// CancelAttempts marks every open attempt for an order as cancelled.
// Best-effort cleanup when the order itself is cancelled.
func (s *Service) CancelAttempts(ctx context.Context, orderID uint) error {
	err := s.db.WithContext(ctx).Model(&Attempt{}).
		Where("order_id = ? AND outcome = ?", orderID, OutcomeUnconfirmed).
		Update("outcome", OutcomeCancelled).Error
	if err != nil {
		return apperrors.Storage(err, "failed to cancel payment attempts for order %d", orderID)
	}
	return nil
}

// Attempts lists all payment attempts for an order, newest first
func (s *Service) Attempts(ctx context.Context, orderID uint) ([]Attempt, error) {
	var attempts []Attempt
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list payment attempts for order %d", orderID)
	}
	return attempts, nil
}

func (s *Service) latestAttempt(ctx context.Context, orderID uint) (*Attempt, error) {
	var attempt Attempt
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Confirming without an initiate call is allowed, there is
			// just no attempt record to update
			return nil, nil
		}
		return nil, apperrors.Storage(err, "failed to load payment attempt for order %d", orderID)
	}
	return &attempt, nil
}

func (s *Service) buildInstructions(o *order.Order, attempt *Attempt) *Instructions {
	inst := &Instructions{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Reference:   attempt.Reference,
		Method:      attempt.Method,
		Amount:      attempt.Amount,
	}

	switch attempt.Method {
	case order.PaymentMethodUPI:
		inst.PaymentURI = s.upiLink(o)
		inst.Note = "Complete the transfer in your UPI app, then confirm the payment"
	case order.PaymentMethodCard, order.PaymentMethodNetBanking:
		inst.RedirectURL = fmt.Sprintf("%s/pay/%s", s.config.Payment.RedirectURL, attempt.Reference)
		inst.Note = "Complete the payment on the hosted page, then confirm the payment"
	case order.PaymentMethodCOD:
		inst.Note = "Pay in cash on delivery; confirm to place the order"
	}

	return inst
}

func (s *Service) upiLink(o *order.Order) string {
	params := url.Values{}
	params.Set("pa", s.config.Payment.MerchantVPA)
	params.Set("pn", s.config.Payment.MerchantName)
	params.Set("am", strconv.FormatInt(o.Total, 10))
	params.Set("cu", "INR")
	params.Set("tn", "Order "+o.OrderNumber)
	return "upi://pay?" + params.Encode()
}
