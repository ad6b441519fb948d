// Package sharing reconciles pantry items with community contributions:
// turning stock into offers, keeping the remaining pantry quantity right,
// and driving each offer through available, claimed, collected and
// unavailable.
package sharing

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/larder/internal/metrics"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

// Notifier is told which cached collections went stale after a change.
type Notifier interface {
	PantryChanged(ownerID, action, itemID string)
	ContributionChanged(action, contributionID string)
}

type nopNotifier struct{}

func (nopNotifier) PantryChanged(string, string, string) {}
func (nopNotifier) ContributionChanged(string, string)   {}

type Service struct {
	db            *sql.DB
	pantry        *store.PantryStore
	contributions *store.ContributionStore
	notifier      Notifier
	now           func() time.Time
	logger        *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *sql.DB, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		db:            db,
		pantry:        store.NewPantryStore(db),
		contributions: store.NewContributionStore(db),
		notifier:      nopNotifier{},
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShareRequest describes a new offer carved out of a pantry item.
type ShareRequest struct {
	Quantity       int
	Description    string
	Location       string
	AvailableUntil *time.Time
}

// EditRequest replaces the editable fields of an available offer.
type EditRequest struct {
	Quantity       int
	Description    string
	Location       string
	AvailableUntil *time.Time
}

// Share turns req.Quantity units of the caller's pantry item into an
// available contribution and takes them out of the pantry. The insert and
// the pantry update commit together or not at all; an item that reaches
// zero is deleted.
func (s *Service) Share(ctx context.Context, callerID, pantryItemID string, req ShareRequest) (*model.Contribution, error) {
	if callerID == "" {
		return nil, s.reject("share", unauthenticated())
	}
	if req.Quantity <= 0 {
		return nil, s.reject("share", validationf("Share at least one unit"))
	}
	if err := s.checkAvailableUntil(req.AvailableUntil); err != nil {
		return nil, s.reject("share", err)
	}

	var created *model.Contribution
	var itemRemoved bool
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pantry := store.NewPantryStore(tx)
		contributions := store.NewContributionStore(tx)

		item, err := pantry.Get(ctx, callerID, pantryItemID)
		if err != nil {
			return persistence("load pantry item", err)
		}
		if item == nil {
			return notFound("This item no longer exists.")
		}
		if req.Quantity > item.Quantity {
			return validationf("Cannot share more than what you have in inventory")
		}

		source := item.ID
		created, err = contributions.Create(ctx, store.ContributionInput{
			ContributorID:      callerID,
			SourcePantryItemID: &source,
			Name:               item.Name,
			Quantity:           req.Quantity,
			Unit:               item.Unit,
			Category:           item.Category,
			Description:        req.Description,
			Location:           req.Location,
			AvailableUntil:     req.AvailableUntil,
		})
		if err != nil {
			return persistence("create contribution", err)
		}

		remaining := item.Quantity - req.Quantity
		if remaining == 0 {
			itemRemoved = true
			if _, err := pantry.Delete(ctx, callerID, item.ID); err != nil {
				return persistence("remove shared pantry item", err)
			}
			return nil
		}
		if _, err := pantry.SetQuantity(ctx, callerID, item.ID, remaining); err != nil {
			return persistence("update pantry quantity", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject("share", persistence("share pantry item", err))
	}

	action := "updated"
	if itemRemoved {
		action = "deleted"
	}
	s.notifier.PantryChanged(callerID, action, pantryItemID)
	s.notifier.ContributionChanged("created", created.ID)
	metrics.ContributionEvents.WithLabelValues("shared").Inc()
	s.logger.Info("pantry item shared",
		"contribution_id", created.ID, "pantry_item_id", pantryItemID,
		"quantity", req.Quantity, "pantry_item_removed", itemRemoved)

	return created, nil
}

// Edit changes an available offer's quantity and details. The linked pantry
// item and the offer form one pool: growing the offer takes the difference
// from the pantry, shrinking it gives the difference back, and a pantry item
// that reaches zero is deleted. Both rows change in one transaction.
func (s *Service) Edit(ctx context.Context, callerID, contributionID string, req EditRequest) (*model.Contribution, error) {
	if callerID == "" {
		return nil, s.reject("edit", unauthenticated())
	}

	var (
		updated     *model.Contribution
		pantryEvent string
		pantryID    string
	)
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pantry := store.NewPantryStore(tx)
		contributions := store.NewContributionStore(tx)

		c, err := contributions.Get(ctx, contributionID)
		if err != nil {
			return persistence("load contribution", err)
		}
		if c == nil {
			return notFound("This item no longer exists.")
		}
		if c.ContributorID != callerID {
			return forbidden("Only the contributor can edit this contribution.")
		}
		if c.Status != model.StatusAvailable {
			return invalidState("Contribution must be available to edit")
		}
		if req.Quantity <= 0 {
			return validationf("Share at least one unit")
		}
		if err := s.checkAvailableUntil(req.AvailableUntil); err != nil {
			return err
		}

		item, sourceGone, err := linkedItem(ctx, pantry, c)
		if err != nil {
			return persistence("load linked pantry item", err)
		}
		switch {
		case item != nil:
			pool := item.Quantity + c.Quantity
			if req.Quantity > pool {
				return validationf("Cannot share more than %d units", pool)
			}
			pantryEvent, err = moveToOffer(ctx, pantry, item, req.Quantity-c.Quantity)
			if err != nil {
				return err
			}
			pantryID = item.ID
		case sourceGone:
			// The whole pool is already on offer, so the offer may only shrink.
			// Unlike an unlinked offer, the check is not skipped.
			if req.Quantity > c.Quantity {
				return validationf("Cannot share more than %d units", c.Quantity)
			}
		}

		ok, err := contributions.UpdateDetails(ctx, c.ID, model.StatusAvailable, store.ContributionUpdate{
			Quantity:       req.Quantity,
			Description:    req.Description,
			Location:       req.Location,
			AvailableUntil: req.AvailableUntil,
		})
		if err != nil {
			return persistence("update contribution", err)
		}
		if !ok {
			return invalidState("Contribution must be available to edit")
		}

		updated, err = contributions.Get(ctx, c.ID)
		if err != nil {
			return persistence("reload contribution", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject("edit", persistence("edit contribution", err))
	}

	if pantryEvent != "" {
		s.notifier.PantryChanged(callerID, pantryEvent, pantryID)
	}
	s.notifier.ContributionChanged("updated", updated.ID)
	metrics.ContributionEvents.WithLabelValues("edited").Inc()
	return updated, nil
}

// moveToOffer takes delta units out of item, or gives -delta back when
// delta is negative. It returns the pantry event to publish, if any.
func moveToOffer(ctx context.Context, pantry *store.PantryStore, item *model.PantryItem, delta int) (string, error) {
	if delta == 0 {
		return "", nil
	}
	remaining := item.Quantity - delta
	if remaining == 0 {
		if _, err := pantry.Delete(ctx, item.OwnerID, item.ID); err != nil {
			return "", persistence("remove shared pantry item", err)
		}
		return "deleted", nil
	}
	if _, err := pantry.SetQuantity(ctx, item.OwnerID, item.ID, remaining); err != nil {
		return "", persistence("update pantry quantity", err)
	}
	return "updated", nil
}

// linkedItem finds the pantry item an offer draws on. Offers that recorded
// their source use it, and sourceGone reports that it has since been
// removed. Rows created before the source was recorded fall back to a
// case-insensitive name match in the contributor's pantry; a nil item with
// sourceGone false means the offer is not linked at all.
func linkedItem(ctx context.Context, pantry *store.PantryStore, c *model.Contribution) (item *model.PantryItem, sourceGone bool, err error) {
	if c.SourcePantryItemID != nil {
		item, err := pantry.Get(ctx, c.ContributorID, *c.SourcePantryItemID)
		if err != nil {
			return nil, false, err
		}
		return item, item == nil, nil
	}

	item, err = pantry.FindByName(ctx, c.ContributorID, c.Name)
	return item, false, err
}

// Claim reserves an available offer for the caller, who must not be its
// contributor. Nothing returns to the contributor's pantry.
func (s *Service) Claim(ctx context.Context, callerID, contributionID string) (*model.Contribution, error) {
	return s.transition(ctx, "claim", callerID, contributionID, transitionRule{
		to:    model.StatusClaimed,
		stale: "This item is no longer available.",
		authorize: func(c *model.Contribution) error {
			if c.ContributorID == callerID {
				return forbidden("You cannot claim your own contribution.")
			}
			return nil
		},
		ready: func(c *model.Contribution) error {
			if c.Expired(s.now()) {
				return invalidState("This offer has expired.")
			}
			return nil
		},
	})
}

// Collect marks a claimed offer as picked up. Either side of the exchange
// may confirm it.
func (s *Service) Collect(ctx context.Context, callerID, contributionID string) (*model.Contribution, error) {
	return s.transition(ctx, "collect", callerID, contributionID, transitionRule{
		to:    model.StatusCollected,
		stale: "Only claimed contributions can be collected.",
		authorize: func(c *model.Contribution) error {
			claimer := c.ClaimedBy != nil && *c.ClaimedBy == callerID
			if c.ContributorID != callerID && !claimer {
				return forbidden("Only the contributor or claimer can confirm collection.")
			}
			return nil
		},
	})
}

// StopSharing withdraws an available offer. The shared quantity is not
// returned to the pantry.
func (s *Service) StopSharing(ctx context.Context, callerID, contributionID string) (*model.Contribution, error) {
	return s.transition(ctx, "stop", callerID, contributionID, transitionRule{
		to:    model.StatusUnavailable,
		stale: "This item is no longer shareable.",
		authorize: func(c *model.Contribution) error {
			if c.ContributorID != callerID {
				return forbidden("Only the contributor can stop sharing.")
			}
			return nil
		},
	})
}

var transitionEvents = map[model.ContributionStatus]string{
	model.StatusClaimed:     "claimed",
	model.StatusCollected:   "collected",
	model.StatusUnavailable: "stopped",
}

// transitionRule describes one status change. authorize runs first, then
// the state machine is consulted, then ready for any extra precondition.
// stale is the message when the current status does not allow the move.
type transitionRule struct {
	to        model.ContributionStatus
	stale     string
	authorize func(*model.Contribution) error
	ready     func(*model.Contribution) error
}

// transition loads the offer, checks the rule, and applies the status
// change as a compare-and-set so that concurrent callers cannot both win.
func (s *Service) transition(ctx context.Context, op, callerID, contributionID string, rule transitionRule) (*model.Contribution, error) {
	if callerID == "" {
		return nil, s.reject(op, unauthenticated())
	}

	c, err := s.contributions.Get(ctx, contributionID)
	if err != nil {
		return nil, s.reject(op, persistence("load contribution", err))
	}
	if c == nil {
		return nil, s.reject(op, notFound("This item no longer exists."))
	}
	if err := rule.authorize(c); err != nil {
		return nil, s.reject(op, err)
	}
	if !c.Status.CanTransition(rule.to) {
		return nil, s.reject(op, invalidState(rule.stale))
	}
	if rule.ready != nil {
		if err := rule.ready(c); err != nil {
			return nil, s.reject(op, err)
		}
	}

	ok, err := s.contributions.Transition(ctx, c.ID, c.Status, rule.to, callerID, s.now())
	if err != nil {
		return nil, s.reject(op, persistence("update contribution status", err))
	}
	if !ok {
		return nil, s.reject(op, invalidState(rule.stale))
	}

	updated, err := s.contributions.Get(ctx, c.ID)
	if err != nil {
		return nil, s.reject(op, persistence("reload contribution", err))
	}

	event := transitionEvents[rule.to]
	s.notifier.ContributionChanged(event, updated.ID)
	metrics.ContributionEvents.WithLabelValues(event).Inc()
	s.logger.Info("contribution "+event, "contribution_id", updated.ID, "actor", callerID)
	return updated, nil
}

// RemoveItems deletes the listed pantry items the caller owns. Ids owned by
// anyone else are ignored. Contributions made from the items are kept.
func (s *Service) RemoveItems(ctx context.Context, callerID string, ids []string) (int64, error) {
	if callerID == "" {
		return 0, s.reject("bulk_delete", unauthenticated())
	}
	if len(ids) == 0 {
		return 0, s.reject("bulk_delete", validationf("Select at least one item"))
	}

	n, err := s.pantry.DeleteMany(ctx, callerID, ids)
	if err != nil {
		return 0, s.reject("bulk_delete", persistence("remove pantry items", err))
	}

	s.notifier.PantryChanged(callerID, "bulk_deleted", "")
	metrics.PantryRemovals.WithLabelValues("bulk_delete").Add(float64(n))
	return n, nil
}

// ClearPantry deletes every pantry item the caller owns.
func (s *Service) ClearPantry(ctx context.Context, callerID string) (int64, error) {
	if callerID == "" {
		return 0, s.reject("clear", unauthenticated())
	}

	n, err := s.pantry.DeleteAll(ctx, callerID)
	if err != nil {
		return 0, s.reject("clear", persistence("clear pantry", err))
	}

	s.notifier.PantryChanged(callerID, "cleared", "")
	metrics.PantryRemovals.WithLabelValues("clear").Add(float64(n))
	return n, nil
}

func (s *Service) checkAvailableUntil(t *time.Time) error {
	if t != nil && !t.After(s.now()) {
		return validationf("Available until must be in the future")
	}
	return nil
}

func (s *Service) reject(op string, err error) error {
	reason := Reason(err)
	metrics.ContributionRejections.WithLabelValues(op, reason).Inc()
	if reason == "persistence" {
		s.logger.Error("sharing operation failed", "op", op, "error", err)
	} else {
		s.logger.Debug("sharing operation rejected", "op", op, "reason", reason, "error", err)
	}
	return err
}
