// Package service holds the product operations behind the HTTP handlers:
// ownership checks, validation and the image lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/apperrors"
	"github.com/Devkz19/Take-Home-inventory/internal/db"
	"github.com/Devkz19/Take-Home-inventory/internal/media"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

const (
	msgMissingFields = "Please fill in all fields"
	msgUploadFailed  = "Image upload failed"
	msgNotFound      = "Product not found"
	msgNotOwner      = "User not authorized"
)

// EventPublisher receives product events after successful writes.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// Recorder counts product operations and media failures.
type Recorder interface {
	ProductOperation(op, outcome string)
	MediaFailure(op string)
}

type noopPublisher struct{}

func (noopPublisher) PublishProductEvent(context.Context, models.ProductEvent) error { return nil }

type noopRecorder struct{}

func (noopRecorder) ProductOperation(string, string) {}
func (noopRecorder) MediaFailure(string)             {}

type ProductService struct {
	store    db.ProductStore
	media    media.Store
	events   EventPublisher
	recorder Recorder
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductService wires the service. events and recorder may be nil.
func NewProductService(store db.ProductStore, mediaStore media.Store, events EventPublisher, recorder Recorder, log *zap.Logger) *ProductService {
	if events == nil {
		events = noopPublisher{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ProductService{
		store:    store,
		media:    mediaStore,
		events:   events,
		recorder: recorder,
		validate: validator.New(),
		log:      log,
	}
}

// Create validates input, uploads the optional file and persists the product
// owned by requester. Nothing is persisted when the upload fails.
func (s *ProductService) Create(ctx context.Context, requester string, input models.ProductInput, file *models.UploadedFile) (product *models.Product, err error) {
	defer s.observe("create", &err)

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var image *models.ImageDescriptor
	if file != nil {
		image, err = s.upload(ctx, file)
		if err != nil {
			return nil, err
		}
	}

	product = &models.Product{
		Owner:       requester,
		Name:        input.Name,
		SKU:         input.SKU,
		Category:    input.Category,
		Quantity:    *input.Quantity,
		Price:       *input.Price,
		Description: input.Description,
		Image:       image,
	}
	if err := s.store.Create(ctx, product); err != nil {
		if image != nil {
			s.removeImage(ctx, image)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("Product created", zap.String("product_id", product.ID), zap.String("owner", requester))
	s.publish(ctx, models.ProductCreated, product)
	return product, nil
}

// List returns the requester's products, newest first
func (s *ProductService) List(ctx context.Context, requester string) (products []models.Product, err error) {
	defer s.observe("list", &err)

	products, err = s.store.ListByOwner(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, requester, id string) (product *models.Product, err error) {
	defer s.observe("get", &err)
	return s.owned(ctx, requester, id)
}

// Update replaces the editable fields. With a new file the old image is
// removed first, then the new one uploaded; an upload failure leaves the
// record unchanged.
func (s *ProductService) Update(ctx context.Context, requester, id string, input models.ProductInput, file *models.UploadedFile) (product *models.Product, err error) {
	defer s.observe("update", &err)

	existing, err := s.owned(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	update := models.ProductUpdate{
		Name:        input.Name,
		Category:    input.Category,
		Quantity:    *input.Quantity,
		Price:       *input.Price,
		Description: input.Description,
	}

	if file != nil {
		if existing.Image != nil {
			s.removeImage(ctx, existing.Image)
		}
		update.Image, err = s.upload(ctx, file)
		if err != nil {
			return nil, err
		}
	}

	product, err = s.store.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if product == nil {
		return nil, apperrors.NotFound(msgNotFound)
	}

	s.log.Info("Product updated", zap.String("product_id", id), zap.Bool("new_image", file != nil))
	s.publish(ctx, models.ProductUpdated, product)
	return product, nil
}

// Delete releases the stored image, best-effort, then removes the record.
func (s *ProductService) Delete(ctx context.Context, requester, id string) (err error) {
	defer s.observe("delete", &err)

	existing, err := s.owned(ctx, requester, id)
	if err != nil {
		return err
	}

	if existing.Image != nil {
		s.removeImage(ctx, existing.Image)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.log.Info("Product deleted", zap.String("product_id", id))
	s.publish(ctx, models.ProductDeleted, existing)
	return nil
}

// AdjustStock applies a stock delta coming from outside the HTTP API.
// db.ErrAdjustRejected is returned as is.
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (product *models.Product, err error) {
	defer s.observe("adjust", &err)

	product, err = s.store.AdjustQuantity(ctx, id, delta)
	if err != nil {
		if errors.Is(err, db.ErrAdjustRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	s.log.Info("Stock adjusted",
		zap.String("product_id", id),
		zap.Int("delta", delta),
		zap.Int("quantity", product.Quantity))
	s.publish(ctx, models.ProductUpdated, product)
	return product, nil
}

func (s *ProductService) owned(ctx context.Context, requester, id string) (*models.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, apperrors.NotFound(msgNotFound)
	}
	if product.Owner != requester {
		return nil, apperrors.Unauthorized(msgNotOwner)
	}
	return product, nil
}

func (s *ProductService) validateInput(input models.ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		return &apperrors.Error{Kind: apperrors.KindValidation, Message: msgMissingFields, Err: err}
	}
	return nil
}

func (s *ProductService) upload(ctx context.Context, file *models.UploadedFile) (*models.ImageDescriptor, error) {
	image, err := s.media.Upload(ctx, file)
	if err != nil {
		s.recorder.MediaFailure("upload")
		s.log.Error("Image upload failed", zap.String("file", file.OriginalName), zap.Error(err))
		return nil, apperrors.UploadFailed(msgUploadFailed, err)
	}
	return image, nil
}

// removeImage is best-effort: failures are logged and never abort the caller.
func (s *ProductService) removeImage(ctx context.Context, image *models.ImageDescriptor) {
	err := s.media.Remove(ctx, image)
	switch {
	case err == nil:
		return
	case errors.Is(err, media.ErrMissingObjectKey):
		s.log.Warn("Skipping image removal, no object key stored", zap.String("file_path", image.FilePath))
	default:
		s.recorder.MediaFailure("remove")
		s.log.Warn("Failed to remove image", zap.String("object_key", image.ObjectKey), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, eventType string, product *models.Product) {
	if err := s.events.PublishProductEvent(ctx, models.NewProductEvent(eventType, product)); err != nil {
		s.log.Warn("Failed to publish product event",
			zap.String("type", eventType),
			zap.String("product_id", product.ID),
			zap.Error(err))
	}
}

func (s *ProductService) observe(op string, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = apperrors.KindOf(*err).String()
	}
	s.recorder.ProductOperation(op, outcome)
}
