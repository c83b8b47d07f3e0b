package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
	"go.uber.org/zap"
)

// Flow selects who creates bookings and therefore their initial status.
type Flow string

const (
	// FlowOwner: the venue owner records bookings, which start confirmed.
	FlowOwner Flow = "owner"
	// FlowCustomer: customers request bookings, which wait for the owner.
	FlowCustomer Flow = "customer"
)

func (f Flow) initialStatus() Status {
	if f == FlowCustomer {
		return StatusPending
	}
	return StatusConfirmed
}

type Config struct {
	Flow           Flow
	RequireAdvance bool
	Location       *time.Location // venue timezone used for "today"
}

// CreateRequest carries data to create a booking.
type CreateRequest struct {
	HallID      string
	Date        string
	Customer    Customer
	Details     EventDetails
	Financials  Financials
	Notes       string
	// RequesterID is the authenticated caller. In the owner flow it must own
	// the hall; in the customer flow it becomes the booking's customer.
	// Empty for trusted internal callers.
	RequesterID string
}

// UpdateFieldsRequest carries a partial edit. Nil fields are left unchanged.
type UpdateFieldsRequest struct {
	CustomerName  *string
	CustomerPhone *string
	TotalAmount   *int64
	AdvanceAmount *int64
	AdvancePaid   *bool
	Notes         *string
}

// Action is what a caller wants to do with an existing booking.
type Action int

const (
	// ActionView reads the booking. Allowed to the hall owner and the customer.
	ActionView Action = iota
	// ActionCancel cancels the booking. Allowed to the hall owner and the customer.
	ActionCancel
	// ActionManage covers edits and every other status change. Hall owner only.
	ActionManage
)

type Service interface {
	// Authorize fails with ErrForbidden unless userID may perform action on the booking.
	Authorize(ctx context.Context, bookingID, userID string, action Action) error
	// AuthorizeHall fails with ErrForbidden unless userID owns the hall.
	AuthorizeHall(ctx context.Context, hallID, userID string) error

	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Booking, error)
	UpdateFields(ctx context.Context, id string, req UpdateFieldsRequest) (*Booking, error)

	Upcoming(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error)
	Completed(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error)
	Cancelled(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error)
	Summary(ctx context.Context, filter SummaryFilter) (*Summary, error)

	// Today is the current calendar date at the venue.
	Today() string
}

type service struct {
	repo  Repository
	halls hall.Repository
	tx    db.TxManager
	sync  *Synchronizer
	sink  EventSink
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, halls hall.Repository, tx db.TxManager, sink EventSink, cfg Config, log *zap.Logger, opts ...Option) Service {
	if cfg.Flow == "" {
		cfg.Flow = FlowOwner
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &service{
		repo:  repo,
		halls: halls,
		tx:    tx,
		sync:  NewSynchronizer(halls, repo, tx),
		sink:  sink,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Authorize(ctx context.Context, bookingID, userID string, action Action) error {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrForbidden
	}

	h, err := s.halls.GetByID(ctx, b.HallID)
	switch {
	case err == nil:
		if h.OwnerID == userID {
			return nil
		}
	case !errors.Is(err, hall.ErrNotFound):
		return err
	}

	if b.Customer.UserID == userID && action != ActionManage {
		return nil
	}
	return ErrForbidden
}

func (s *service) AuthorizeHall(ctx context.Context, hallID, userID string) error {
	h, err := s.halls.GetByID(ctx, hallID)
	if err != nil {
		if errors.Is(err, hall.ErrNotFound) {
			return ErrHallNotFound
		}
		return err
	}
	if userID == "" || h.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *service) Today() string {
	return calendar.Today(s.now(), s.cfg.Location)
}

// validateCreate checks the form rules in the order a user fixes them.
func (s *service) validateCreate(req *CreateRequest) error {
	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)
	req.Customer.Email = strings.TrimSpace(req.Customer.Email)

	if !calendar.Valid(req.Date) {
		return ErrInvalidDate
	}
	if req.Date < s.Today() {
		return ErrPastDate
	}
	if req.Customer.Name == "" {
		return ErrNameRequired
	}
	if req.Customer.Phone == "" {
		return ErrPhoneRequired
	}
	if req.Financials.TotalAmount <= 0 {
		return ErrInvalidAmount
	}
	if req.Financials.AdvanceAmount < 0 {
		return ErrInvalidAmount
	}
	if s.cfg.RequireAdvance && req.Financials.AdvanceAmount <= 0 {
		return ErrAdvanceRequired
	}
	if req.Financials.AdvanceAmount > req.Financials.TotalAmount {
		return ErrAdvanceExceedsTotal
	}

	if req.Details.EventType == "" {
		req.Details.EventType = EventOther
	}
	if !req.Details.EventType.Valid() {
		return ErrInvalidEventType
	}
	if req.Details.DietaryPreference == "" {
		req.Details.DietaryPreference = DietVeg
	}
	if !req.Details.DietaryPreference.Valid() {
		return ErrInvalidDietary
	}
	if req.Details.GuestCount < 0 {
		return ErrInvalidGuestCount
	}
	return nil
}

// Create validates the request and inserts the booking. The conflict check,
// the insert and (for confirmed bookings) the date claim share one
// transaction holding the hall row lock.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	customer := req.Customer
	if s.cfg.Flow == FlowCustomer && req.RequesterID != "" {
		customer.UserID = req.RequesterID
	}

	b := &Booking{
		HallID:     req.HallID,
		Date:       req.Date,
		Status:     s.cfg.Flow.initialStatus(),
		Customer:   customer,
		Details:    req.Details,
		Financials: req.Financials,
		Notes:      strings.TrimSpace(req.Notes),
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		h, err := s.halls.GetForUpdate(ctx, req.HallID)
		if err != nil {
			if errors.Is(err, hall.ErrNotFound) {
				return ErrHallNotFound
			}
			return err
		}
		if s.cfg.Flow == FlowOwner && req.RequesterID != "" && h.OwnerID != req.RequesterID {
			return ErrForbidden
		}

		switch h.StateOf(b.Date) {
		case hall.DateBlocked:
			return ErrDateBlocked
		case hall.DateBooked:
			return ErrDateUnavailable
		}

		conflict, err := s.repo.HasConflict(ctx, b.HallID, b.Date, "")
		if err != nil {
			return err
		}
		if conflict {
			return ErrDateUnavailable
		}

		b.HallName = h.Name
		b.Financials.TotalAmount, b.Financials.Discount = ApplyPricing(h.BasePrice, req.Financials.TotalAmount)
		if b.Financials.AdvanceAmount > b.Financials.TotalAmount {
			return ErrAdvanceExceedsTotal
		}

		now := s.now().UTC()
		b.CreatedAt = now
		b.UpdatedAt = now

		// Claim before insert so a failed claim leaves nothing behind in
		// stores without rollback.
		if err := s.sync.Sync(ctx, b.HallID, b.Date, "", b.Status); err != nil {
			return err
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("hall_id", b.HallID),
		zap.String("date", b.Date),
		zap.String("status", string(b.Status)),
	)
	s.publish(ctx, Event{Kind: EventCreated, After: b.Clone(), OccurredAt: b.CreatedAt})
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = b.EffectiveStatus(s.Today())
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.deriveStatus(bookings)
	return bookings, total, nil
}

func (s *service) deriveStatus(bookings []*Booking) {
	today := s.Today()
	for _, b := range bookings {
		b.Status = b.EffectiveStatus(today)
	}
}

// UpdateStatus moves a booking along the lifecycle. Repeating the current
// status is a no-op that emits nothing.
func (s *service) UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var before, after *Booking
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == status {
			after = b
			return nil
		}
		if !b.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}

		if status == StatusCompleted && b.Date >= s.Today() {
			return ErrNotYetHeld
		}

		// Every availability write for the hall happens under its row lock.
		if _, err := s.halls.GetForUpdate(ctx, b.HallID); err != nil {
			if errors.Is(err, hall.ErrNotFound) {
				return ErrHallNotFound
			}
			return err
		}
		if status == StatusConfirmed {
			conflict, err := s.repo.HasConflict(ctx, b.HallID, b.Date, b.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrDateUnavailable
			}
		}

		before = b.Clone()
		now := s.now().UTC()
		b.Status = status
		b.UpdatedAt = now
		if status == StatusCancelled {
			b.CancelledAt = &now
			b.CancellationReason = strings.TrimSpace(reason)
			if b.CancellationReason == "" {
				b.CancellationReason = DefaultCancellationReason
			}
		}

		if err := s.repo.UpdateStatus(ctx, b, before.Status); err != nil {
			return err
		}
		after = b
		return s.sync.Sync(ctx, b.HallID, b.Date, before.Status, status)
	})
	if err != nil {
		return nil, err
	}

	if before != nil {
		s.log.Info("booking status changed",
			zap.String("booking_id", after.ID),
			zap.String("from", string(before.Status)),
			zap.String("to", string(after.Status)),
		)
		s.publish(ctx, StatusChangedEvent(before, after.Clone(), after.UpdatedAt))
	}
	after.Status = after.EffectiveStatus(s.Today())
	return after, nil
}

// UpdateFields edits customer and payment details. Status and availability
// are never touched here.
func (s *service) UpdateFields(ctx context.Context, id string, req UpdateFieldsRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerName != nil {
		b.Customer.Name = strings.TrimSpace(*req.CustomerName)
		if b.Customer.Name == "" {
			return nil, ErrNameRequired
		}
	}
	if req.CustomerPhone != nil {
		b.Customer.Phone = strings.TrimSpace(*req.CustomerPhone)
		if b.Customer.Phone == "" {
			return nil, ErrPhoneRequired
		}
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount <= 0 {
			return nil, ErrInvalidAmount
		}
		h, err := s.halls.GetByID(ctx, b.HallID)
		if err != nil {
			if errors.Is(err, hall.ErrNotFound) {
				return nil, ErrHallNotFound
			}
			return nil, err
		}
		b.Financials.TotalAmount, b.Financials.Discount = ApplyPricing(h.BasePrice, *req.TotalAmount)
	}
	if req.AdvanceAmount != nil {
		if *req.AdvanceAmount < 0 {
			return nil, ErrInvalidAmount
		}
		b.Financials.AdvanceAmount = *req.AdvanceAmount
	}
	if b.Financials.AdvanceAmount > b.Financials.TotalAmount {
		return nil, ErrAdvanceExceedsTotal
	}
	if req.AdvancePaid != nil {
		b.Financials.AdvancePaid = *req.AdvancePaid
	}
	if req.Notes != nil {
		b.Notes = strings.TrimSpace(*req.Notes)
	}

	b.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateFields(ctx, b); err != nil {
		return nil, err
	}
	b.Status = b.EffectiveStatus(s.Today())
	return b, nil
}

// Upcoming lists confirmed bookings from today on, soonest first.
func (s *service) Upcoming(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error) {
	return s.List(ctx, Filter{
		HallID:    hallID,
		Statuses:  []Status{StatusConfirmed},
		DateFrom:  s.Today(),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    "date",
		SortOrder: "ASC",
	})
}

// Completed lists held events, most recent first.
func (s *service) Completed(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error) {
	return s.List(ctx, Filter{
		HallID:     hallID,
		Statuses:   []Status{StatusConfirmed, StatusCompleted},
		DateBefore: s.Today(),
		Page:       page,
		PageSize:   pageSize,
		SortBy:     "date",
		SortOrder:  "DESC",
	})
}

func (s *service) Cancelled(ctx context.Context, hallID string, page, pageSize int) ([]*Booking, int, error) {
	return s.List(ctx, Filter{
		HallID:    hallID,
		Statuses:  []Status{StatusCancelled},
		Page:      page,
		PageSize:  pageSize,
		SortBy:    "date",
		SortOrder: "DESC",
	})
}

func (s *service) Summary(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	if _, err := s.halls.GetByID(ctx, filter.HallID); err != nil {
		if errors.Is(err, hall.ErrNotFound) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	if filter.Month < 1 || filter.Month > 12 {
		filter.Month = 0
	}
	return s.repo.Summarize(ctx, filter)
}

// publish hands a committed change to the sink. The write already succeeded,
// so failures are logged rather than returned.
func (s *service) publish(ctx context.Context, ev Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("publish booking event failed", zap.Stringer("event", ev), zap.Error(err))
	}
}
