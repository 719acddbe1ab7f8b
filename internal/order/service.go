package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"cartify/internal/cart"
	"cartify/internal/db"
	"cartify/internal/events"
	"cartify/internal/logger"
	"cartify/internal/metrics"
	"cartify/internal/payment"
	"cartify/internal/product"
	"cartify/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	CreateFromCart(ctx context.Context, params CreateFromCartParams) (*Order, error)
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	ListBuyerOrders(ctx context.Context, buyerID int64) ([]Summary, error)
	RemoveOrder(ctx context.Context, orderID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

type ProductLookup interface {
	GetForOrder(ctx context.Context, q db.DBTX, productID int64) (*product.Product, error)
}

type CartStore interface {
	GetCheckoutRows(ctx context.Context, q db.DBTX, buyerID int64) ([]cart.CheckoutRow, error)
	DeleteProducts(ctx context.Context, q db.DBTX, buyerID int64, productIDs []int64) (int64, error)
}

type PaymentRecorder interface {
	Record(ctx context.Context, q db.DBTX, p *payment.Payment) error
	GetByOrder(ctx context.Context, orderID int64) (*payment.Payment, error)
}

// PreferenceToucher is told which categories a buyer just purchased from.
type PreferenceToucher interface {
	TouchAll(ctx context.Context, buyerID int64, categoryIDs []int64) error
}

type Option func(*service)

func WithPublisher(p events.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(s *service) { s.metrics = r }
}

type service struct {
	db        *sql.DB
	repo      Repository
	products  ProductLookup
	carts     CartStore
	payments  PaymentRecorder
	prefs     PreferenceToucher
	publisher events.Publisher
	metrics   *metrics.Registry
}

func NewService(
	conn *sql.DB,
	repo Repository,
	products ProductLookup,
	carts CartStore,
	payments PaymentRecorder,
	prefs PreferenceToucher,
	opts ...Option,
) Service {
	s := &service{
		db:        conn,
		repo:      repo,
		products:  products,
		carts:     carts,
		payments:  payments,
		prefs:     prefs,
		publisher: events.NewNoopPublisher(),
		metrics:   metrics.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// priceSource yields the lines to purchase, priced inside the order
// transaction.
type priceSource func(ctx context.Context, q db.DBTX) ([]pricedLine, error)

func (s *service) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Int64("buyer_id", params.BuyerID),
	)

	method, err := validateCreateOrder(params)
	if err != nil {
		log.Warn("rejected order request", zap.Error(err))
		return nil, err
	}

	lines, err := mergeLineItems(params.Items)
	if err != nil {
		log.Warn("rejected order request", zap.Error(err))
		return nil, err
	}
	source := func(ctx context.Context, q db.DBTX) ([]pricedLine, error) {
		priced := make([]pricedLine, 0, len(lines))
		for _, li := range lines {
			p, err := s.products.GetForOrder(ctx, q, li.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %d: %w", li.ProductID, err)
			}
			priced = append(priced, pricedLine{
				ProductID:  li.ProductID,
				Quantity:   li.Quantity,
				Price:      p.Price,
				CategoryID: p.CategoryID,
			})
		}
		return priced, nil
	}

	o, err := s.place(ctx, params.BuyerID, method, &params.Address, source)
	if err != nil {
		return nil, err
	}

	if !o.TotalPrice.Equal(params.TotalPrice) {
		log.Warn("client total differs from computed total",
			zap.String("client_total", params.TotalPrice.String()),
			zap.String("total", o.TotalPrice.String()),
		)
	}
	return o, nil
}

func (s *service) CreateFromCart(ctx context.Context, params CreateFromCartParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateFromCart"),
		zap.Int64("buyer_id", params.BuyerID),
	)

	method, err := validateCreateFromCart(params)
	if err != nil {
		log.Warn("rejected order request", zap.Error(err))
		return nil, err
	}

	source := func(ctx context.Context, q db.DBTX) ([]pricedLine, error) {
		rows, err := s.carts.GetCheckoutRows(ctx, q, params.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("read cart: %w", err)
		}

		priced := make([]pricedLine, 0, len(rows))
		for _, row := range rows {
			if !row.ProductFound {
				return nil, fmt.Errorf("product %d: %w", row.ProductID, ErrProductNotFound)
			}
			if row.Quantity <= 0 {
				continue
			}
			priced = append(priced, pricedLine{
				ProductID:  row.ProductID,
				Quantity:   row.Quantity,
				Price:      row.Price,
				CategoryID: row.CategoryID,
			})
		}
		if len(priced) == 0 {
			return nil, ErrCartEmpty
		}
		return priced, nil
	}

	var addr *Address
	if params.Address != nil && !params.Address.Empty() {
		addr = params.Address
	}
	return s.place(ctx, params.BuyerID, method, addr, source)
}

// place runs the order transaction: price the lines, insert the header,
// items and address, drop the purchased cart rows and record the payment.
// Nothing persists unless every step succeeds.
func (s *service) place(
	ctx context.Context,
	buyerID int64,
	method payment.Method,
	addr *Address,
	source priceSource,
) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "place"),
		zap.Int64("buyer_id", buyerID),
	)

	timer := metrics.StartTimer()
	defer s.metrics.ObserveSince(metrics.OrderCreateLatency, timer)

	var (
		placed     *Order
		categories []int64
	)

	err := db.Transact(ctx, s.db, func(tx *sql.Tx) error {
		lines, err := source(ctx, tx)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		o := &Order{BuyerID: buyerID, TotalPrice: total, Status: StatusPending}
		if err := s.repo.InsertOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		productIDs := make([]int64, 0, len(lines))
		cats := make([]int64, 0, len(lines))
		for _, l := range lines {
			item := OrderItem{
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     l.Price,
			}
			if err := s.repo.InsertItem(ctx, tx, item); err != nil {
				return fmt.Errorf("insert order item %d: %w", l.ProductID, err)
			}
			o.Items = append(o.Items, item)
			productIDs = append(productIDs, l.ProductID)
			if l.CategoryID != nil {
				cats = append(cats, *l.CategoryID)
			}
		}

		if addr != nil {
			a := *addr
			a.OrderID = o.ID
			if err := s.repo.InsertAddress(ctx, tx, a); err != nil {
				return fmt.Errorf("insert order address: %w", err)
			}
			o.Address = &a
		}

		if _, err := s.carts.DeleteProducts(ctx, tx, buyerID, productIDs); err != nil {
			return fmt.Errorf("clear purchased cart rows: %w", err)
		}

		pay := &payment.Payment{
			OrderID: o.ID,
			BuyerID: buyerID,
			Amount:  total,
			Method:  method,
		}
		if err := s.payments.Record(ctx, tx, pay); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		o.Payment = pay

		placed = o
		categories = cats
		return nil
	})
	if err != nil {
		s.metrics.Inc(metrics.OrdersFailed)
		log.Error("order transaction failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersCreated)
	log.Info("order created",
		zap.Int64("order_id", placed.ID),
		zap.String("total_price", placed.TotalPrice.String()),
	)

	s.afterCreate(ctx, placed, categories)
	return placed, nil
}

// afterCreate runs the post-commit side effects. Their failures are
// logged and counted but never undo or fail the order.
func (s *service) afterCreate(ctx context.Context, o *Order, categories []int64) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromCtx(ctx).With(
		zap.Int64("order_id", o.ID),
		zap.Int64("buyer_id", o.BuyerID),
	)

	if len(categories) > 0 {
		if err := s.prefs.TouchAll(ctx, o.BuyerID, categories); err != nil {
			s.metrics.Inc(metrics.PreferenceTouchFailures)
			log.Warn("failed to track buyer preferences", zap.Error(err))
		}
	}

	total := o.TotalPrice
	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderCreated,
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Status:     string(o.Status),
		TotalPrice: &total,
		Categories: utils.UniqueInt64(categories),
	})
}

func (s *service) publish(ctx context.Context, ev events.OrderEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.Inc(metrics.EventsFailed)
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("event_type", string(ev.Type)),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
		return
	}
	s.metrics.Inc(metrics.EventsPublished)
}

// GetOrder returns the order with its items. Buyers only see their own
// orders; sellers and admins see any.
func (s *service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetOrder"),
		zap.Int64("order_id", orderID),
	)

	actorID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if orderID <= 0 {
		return nil, validationError("order id must be positive")
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actorID && !utils.IsStaff(ctx) {
		log.Warn("order read denied", zap.Int64("actor_id", actorID))
		return nil, ErrForbidden
	}

	pay, err := s.payments.GetByOrder(ctx, orderID)
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
	case err != nil:
		log.Error("failed to load payment", zap.Error(err))
		return nil, err
	default:
		o.Payment = pay
	}

	return o, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID int64) ([]Summary, error) {
	if buyerID <= 0 {
		return nil, ErrUnauthorized
	}
	return s.repo.ListByBuyer(ctx, buyerID)
}

// RemoveOrder deletes the order and everything attached to it. Only the
// owning buyer or an admin may do so.
func (s *service) RemoveOrder(ctx context.Context, orderID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RemoveOrder"),
		zap.Int64("order_id", orderID),
	)

	actorID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if orderID <= 0 {
		return validationError("order id must be positive")
	}
	isAdmin := utils.GetUserRoleFromContext(ctx) == utils.RoleAdmin

	var removed *Order
	err := db.Transact(ctx, s.db, func(tx *sql.Tx) error {
		o, err := s.repo.LockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.BuyerID != actorID && !isAdmin {
			return ErrForbidden
		}
		if err := s.repo.Delete(ctx, tx, orderID); err != nil {
			return err
		}
		removed = o
		return nil
	})
	if err != nil {
		log.Warn("failed to remove order", zap.Error(err))
		return err
	}

	log.Info("order removed")
	s.publish(context.WithoutCancel(ctx), events.OrderEvent{
		Type:    events.OrderRemoved,
		OrderID: removed.ID,
		BuyerID: removed.BuyerID,
		Status:  string(removed.Status),
	})
	return nil
}

// UpdateOrderStatus moves the order along the status state machine.
// Only sellers and admins may change status.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.Int64("order_id", orderID),
		zap.String("status", status),
	)

	if _, ok := utils.GetUserIDFromContext(ctx); !ok {
		return ErrUnauthorized
	}
	if !utils.IsStaff(ctx) {
		return ErrForbidden
	}

	next, err := ParseStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %q", err, status)
	}

	var prev *Order
	err = db.Transact(ctx, s.db, func(tx *sql.Tx) error {
		o, err := s.repo.LockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
		}
		if err := s.repo.UpdateStatus(ctx, tx, orderID, next); err != nil {
			return err
		}
		prev = o
		return nil
	})
	if err != nil {
		log.Warn("failed to update order status", zap.Error(err))
		return err
	}

	s.metrics.Inc(metrics.OrderStatusUpdates)
	log.Info("order status updated", zap.String("prev_status", string(prev.Status)))

	s.publish(context.WithoutCancel(ctx), events.OrderEvent{
		Type:       events.OrderStatusChanged,
		OrderID:    orderID,
		BuyerID:    prev.BuyerID,
		Status:     string(next),
		PrevStatus: string(prev.Status),
	})
	return nil
}

func validateCreateOrder(p CreateOrderParams) (payment.Method, error) {
	if p.BuyerID <= 0 {
		return "", ErrUnauthorized
	}
	if len(p.Items) == 0 {
		return "", validationError("products must not be empty")
	}
	for i, item := range p.Items {
		if item.ProductID <= 0 {
			return "", validationError("products[%d]: product_id must be positive", i)
		}
		if item.Quantity <= 0 {
			return "", validationError("products[%d]: quantity must be positive", i)
		}
		if !item.Price.IsPositive() {
			return "", validationError("products[%d]: price must be positive", i)
		}
	}
	if !p.TotalPrice.IsPositive() {
		return "", validationError("total_price must be positive")
	}
	method, err := payment.ParseMethod(p.PaymentMethod)
	if err != nil {
		return "", validationError("payment_method %q is not supported", p.PaymentMethod)
	}
	if !p.Address.Complete() {
		return "", validationError("address, city, postal_code and country are required")
	}
	return method, nil
}

func validateCreateFromCart(p CreateFromCartParams) (payment.Method, error) {
	if p.BuyerID <= 0 {
		return "", ErrUnauthorized
	}
	method, err := payment.ParseMethod(p.PaymentMethod)
	if err != nil {
		return "", validationError("payment_method %q is not supported", p.PaymentMethod)
	}
	if p.Address != nil && !p.Address.Empty() && !p.Address.Complete() {
		return "", validationError("address, city, postal_code and country must be given together")
	}
	return method, nil
}

// mergeLineItems folds repeated products into one line, keeping the
// order in which products first appear. Quantities must already be
// positive; a merged quantity that would overflow is a validation error.
func mergeLineItems(items []LineItem) ([]LineItem, error) {
	index := make(map[int64]int, len(items))
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			if out[i].Quantity > math.MaxInt-item.Quantity {
				return nil, validationError("product %d: quantity too large", item.ProductID)
			}
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out, nil
}
