package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for a single user. Every mutation runs
// through the reducer so the persisted total is always derived from the
// lines.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (State, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (State, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int) (State, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (State, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (State, error)
	ConvertActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	logg     *logger.Logger

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		logg:     logg,
		stores:   map[uuid.UUID]*Store{},
	}, nil
}

// AddItemInput captures the payload required to add a product to the cart.
// Price and name are snapshotted from the catalog, never trusted from the
// client.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Quantity  int
}

// GetCart returns the user's cart, or an empty state when none exists.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (State, error) {
	if userID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	store, err := s.storeFor(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return store.Snapshot(), nil
}

// AddItem merges the product into the cart, validating the selected size
// and color against the catalog listing.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (State, error) {
	if userID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ProductID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return State{}, err
	}
	if !product.IsActive {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if len(product.Sizes) > 0 && !slices.Contains(product.Sizes, input.Size) {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product")
	}
	if len(product.Colors) > 0 && !slices.Contains(product.Colors, input.Color) {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "color is not offered for this product")
	}

	line := Line{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     firstImage(product.Images),
		Size:      input.Size,
		Color:     input.Color,
		Quantity:  input.Quantity,
	}
	return s.apply(ctx, userID, AddItem{Line: line})
}

// UpdateQuantity sets the quantity of every line carrying the product. Zero
// or below removes those lines.
func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int) (State, error) {
	if userID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.apply(ctx, userID, UpdateQuantity{ProductID: productID, Quantity: quantity})
}

// RemoveItem drops every line carrying the product from the cart.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (State, error) {
	if userID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.apply(ctx, userID, RemoveItem{ProductID: productID})
}

// ClearCart empties the user's active cart.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (State, error) {
	if userID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.apply(ctx, userID, Clear{})
}

// ConvertActive marks the user's active cart as converted inside the
// caller's transaction. Checkout calls this after payment is confirmed; the
// in-memory store is cleared so subscribers observe the empty cart.
func (s *service) ConvertActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)
	record, err := txRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := txRepo.UpdateStatus(ctx, record.ID, userID, enums.CartStatusConverted); err != nil {
		return err
	}
	if store := s.cachedStore(userID); store != nil {
		store.Dispatch(Clear{})
	}
	return nil
}

// storeFor returns the user's in-memory store, seeding it from the active
// cart record on first use.
func (s *service) storeFor(ctx context.Context, userID uuid.UUID) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[userID]; ok {
		return store, nil
	}

	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	store := NewStore(stateFromRecord(record))
	store.Subscribe(func(next State) {
		logCtx := s.logg.WithFields(context.Background(), map[string]any{
			"user_id": userID.String(),
			"lines":   len(next.Lines),
			"count":   next.Count(),
		})
		s.logg.Debug(logCtx, "cart updated")
	})
	s.stores[userID] = store
	return store, nil
}

func (s *service) cachedStore(userID uuid.UUID) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores[userID]
}

func (s *service) dropStore(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, userID)
}

// apply dispatches the action through the user's store and persists the
// resulting state atomically. On a persistence failure the cached store is
// discarded so the next read re-seeds from the database.
func (s *service) apply(ctx context.Context, userID uuid.UUID, action Action) (State, error) {
	store, err := s.storeFor(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next := store.Dispatch(action)

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if record == nil {
			record, err = txRepo.Create(ctx, &models.CartRecord{UserID: userID})
			if err != nil {
				return err
			}
		}

		return txRepo.ReplaceItems(ctx, record.ID, itemsFromState(next))
	}); err != nil {
		s.dropStore(userID)
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return next, nil
}

func stateFromRecord(record *models.CartRecord) State {
	if record == nil {
		return State{}
	}
	lines := make([]Line, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	return State{Lines: lines}
}

func itemsFromState(state State) []models.CartItem {
	items := make([]models.CartItem, 0, len(state.Lines))
	for _, line := range state.Lines {
		items = append(items, models.CartItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  line.Quantity,
		})
	}
	return items
}

func firstImage(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}
